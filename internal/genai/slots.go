// internal/genai/slots.go
//
// Rarity slotting for a pack: three common/uncommon slots, one guaranteed
// rare, and one "hit" slot at rare 40% / legendary 40% / mythical 20%.
// Shiny is rolled per card, independent of rarity.

package genai

import (
	"math/rand"

	"github.com/whoamaiii/jenjenmonster/internal/cards"
)

const shinyChance = 0.05

// rollSlots returns the rarity for each of the PackSize slots.
func rollSlots(rng *rand.Rand) []cards.Rarity {
	out := make([]cards.Rarity, PackSize)
	for i := 0; i < 3; i++ {
		if rng.Float64() < 0.5 {
			out[i] = cards.RarityCommon
		} else {
			out[i] = cards.RarityUncommon
		}
	}
	out[3] = cards.RarityRare

	switch hit := rng.Float64(); {
	case hit < 0.4:
		out[4] = cards.RarityRare
	case hit < 0.8:
		out[4] = cards.RarityLegendary
	default:
		out[4] = cards.RarityMythical
	}
	return out
}

func rollShiny(rng *rand.Rand) bool {
	return rng.Float64() < shinyChance
}
