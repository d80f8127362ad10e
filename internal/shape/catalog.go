// internal/shape/catalog.go
//
// Static catalog of named piece layouts, bucketed into difficulty tiers.
// The dock generator (generator.go) draws from these buckets to balance
// challenge against playability.
//
// Conventions:
//   - true = filled cell, false = gap.
//   - Tier membership is by approximate awkwardness, not cell count alone.

package shape

// Def is a catalog entry: a named layout in a difficulty tier.
type Def struct {
	Name   string
	Layout Layout
}

// The single-cell piece is special-cased by the generator as the safety
// valve, so its name is exported.
const DotName = "dot"

var easyDefs = []Def{
	{DotName, Layout{{true}}},
	{"duo-h", Layout{{true, true}}},
	{"duo-v", Layout{{true}, {true}}},
	{"corner", Layout{{true, true}, {true, false}}},
}

var mediumDefs = []Def{
	{"trio-h", Layout{{true, true, true}}},
	{"trio-v", Layout{{true}, {true}, {true}}},
	{"square", Layout{{true, true}, {true, true}}},
	{"el", Layout{{true, false}, {true, false}, {true, true}}},
	{"zig", Layout{{true, true, false}, {false, true, true}}},
}

var hardDefs = []Def{
	{"quad-h", Layout{{true, true, true, true}}},
	{"quad-v", Layout{{true}, {true}, {true}, {true}}},
	{"tee", Layout{{true, true, true}, {false, true, false}}},
	{"big-el", Layout{{true, false, false}, {true, false, false}, {true, true, true}}},
	{"big-square", Layout{{true, true, true}, {true, true, true}, {true, true, true}}},
	{"plus", Layout{{false, true, false}, {true, true, true}, {false, true, false}}},
	{"penta-h", Layout{{true, true, true, true, true}}},
}

// Defs returns the catalog entries for a tier ("easy", "medium", "hard").
// Unknown tiers return nil.
func Defs(tier string) []Def {
	switch tier {
	case "easy":
		return easyDefs
	case "medium":
		return mediumDefs
	case "hard":
		return hardDefs
	}
	return nil
}

// LookupDef finds a catalog entry by name across all tiers.
func LookupDef(name string) (Def, bool) {
	for _, defs := range [][]Def{easyDefs, mediumDefs, hardDefs} {
		for _, d := range defs {
			if d.Name == name {
				return d, true
			}
		}
	}
	return Def{}, false
}
