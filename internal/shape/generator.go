// internal/shape/generator.go
//
// Dock generation with a fairness bias.
//
// A dock is always exactly three pieces:
//   - slot 0 ("challenge"): weighted toward hard layouts, else medium.
//   - slot 1 ("connector"): weighted toward medium layouts, else easy.
//   - slot 2 ("safety"): drawn from easy layouts; when the challenge slot
//     came out hard, the single-cell piece is strongly favored so the
//     player is never locked out by the generator itself.
//
// Piece IDs are unique across the generator's lifetime — consumed pieces
// never have their IDs reused, which keeps snapshots and client-side
// animation keys unambiguous.

package shape

import (
	"math/rand"
	"sync/atomic"
)

const (
	// DockSize is the number of pieces in a full dock.
	DockSize = 3

	challengeHardChance = 0.6
	connectorMedChance  = 0.7
	safetyDotChance     = 0.5
)

// Generator produces docks of pieces with session-unique IDs.
// Safe for use by a single engine; the ID counter is atomic so a restored
// session can bump it without racing scheduled regeneration.
type Generator struct {
	rng    *rand.Rand
	nextID atomic.Int64
}

// NewGenerator constructs a Generator around the provided rand source.
func NewGenerator(rng *rand.Rand) *Generator {
	g := &Generator{rng: rng}
	g.nextID.Store(1)
	return g
}

// Advance ensures future IDs are strictly greater than id.
// Called after restoring a session snapshot so restored piece IDs stay unique.
func (g *Generator) Advance(id int64) {
	for {
		cur := g.nextID.Load()
		if cur > id {
			return
		}
		if g.nextID.CompareAndSwap(cur, id+1) {
			return
		}
	}
}

func (g *Generator) claimID() int64 {
	return g.nextID.Add(1) - 1
}

// NewDock generates a full replacement dock of DockSize pieces.
func (g *Generator) NewDock() []*Shape {
	var defs [DockSize]Def

	// Challenge slot.
	hardChallenge := g.rng.Float64() < challengeHardChance
	if hardChallenge {
		defs[0] = pick(g.rng, hardDefs)
	} else {
		defs[0] = pick(g.rng, mediumDefs)
	}

	// Connector slot.
	if g.rng.Float64() < connectorMedChance {
		defs[1] = pick(g.rng, mediumDefs)
	} else {
		defs[1] = pick(g.rng, easyDefs)
	}

	// Safety slot.
	if hardChallenge && g.rng.Float64() < safetyDotChance {
		defs[2], _ = LookupDef(DotName)
	} else {
		defs[2] = pick(g.rng, easyDefs)
	}

	colors := g.shuffledColors()
	dock := make([]*Shape, DockSize)
	for i, d := range defs {
		dock[i] = &Shape{
			ID:     g.claimID(),
			Name:   d.Name,
			Layout: d.Layout.Clone(),
			Color:  colors[i],
		}
	}
	return dock
}

// shuffledColors returns the palette in random order so color never
// correlates with slot position.
func (g *Generator) shuffledColors() []Color {
	out := make([]Color, len(Palette))
	copy(out, Palette)
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func pick(rng *rand.Rand, defs []Def) Def {
	return defs[rng.Intn(len(defs))]
}
