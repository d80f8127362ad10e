// internal/genai/fallback.go
//
// Static fallback pack: five hand-authored Norwegian-Christmas-themed
// cards spanning common→legendary, embedded so pack opening always works
// even when the collaborator is down or unconfigured.

package genai

import (
	_ "embed"
	"encoding/json"

	"github.com/whoamaiii/jenjenmonster/internal/cards"
)

//go:embed fallback_pack.json
var fallbackJSON []byte

// FallbackPack returns fresh copies of the static pack. Ids are not set;
// the caller stamps identity and ownership.
func FallbackPack() []*cards.Card {
	var out []*cards.Card
	if err := json.Unmarshal(fallbackJSON, &out); err != nil {
		// The embedded pack is validated by tests; reaching this means a
		// build-time asset problem, not a runtime condition.
		panic("genai: corrupt embedded fallback pack: " + err.Error())
	}
	return out
}
