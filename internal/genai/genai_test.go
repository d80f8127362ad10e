package genai

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoamaiii/jenjenmonster/internal/cards"
)

func TestSanitizeInstruction(t *testing.T) {
	assert.Equal(t, "make it snowy", SanitizeInstruction("  make it snowy  "))
	assert.Equal(t, "no tags here", SanitizeInstruction("no <b>tags</b> here"))
	assert.Equal(t, "", SanitizeInstruction("   "))
	assert.Equal(t, "", SanitizeInstruction("<>"))

	long := strings.Repeat("å", 600)
	got := SanitizeInstruction(long)
	assert.Equal(t, 500, len([]rune(got)), "caps at rune count, not bytes")
}

func TestFallbackPackShape(t *testing.T) {
	pack := FallbackPack()
	require.Len(t, pack, PackSize)

	for _, card := range pack {
		assert.NotEmpty(t, card.Name)
		assert.NotEmpty(t, card.Type)
		assert.Positive(t, card.HP)
		assert.NotEmpty(t, card.ArtPrompt)
		assert.NotEmpty(t, card.Moves)
		assert.Contains(t, []cards.Rarity{
			cards.RarityCommon, cards.RarityUncommon, cards.RarityRare,
			cards.RarityLegendary, cards.RarityMythical,
		}, card.Rarity)
	}
}

func TestFallbackPackReturnsFreshCopies(t *testing.T) {
	a := FallbackPack()
	b := FallbackPack()
	a[0].Name = "mutated"
	assert.NotEqual(t, "mutated", b[0].Name)
}

func TestRollSlotsGuarantees(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 500; i++ {
		slots := rollSlots(rng)
		require.Len(t, slots, PackSize)
		for _, r := range slots[:3] {
			assert.Contains(t, []cards.Rarity{cards.RarityCommon, cards.RarityUncommon}, r)
		}
		assert.Equal(t, cards.RarityRare, slots[3], "slot 4 is always rare")
		assert.Contains(t, []cards.Rarity{
			cards.RarityRare, cards.RarityLegendary, cards.RarityMythical,
		}, slots[4])
	}
}

func TestRollSlotsHitDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	counts := map[cards.Rarity]int{}
	const n = 5000
	for i := 0; i < n; i++ {
		counts[rollSlots(rng)[4]]++
	}
	// 40/40/20 with generous slack.
	assert.InDelta(t, 0.40, float64(counts[cards.RarityRare])/n, 0.05)
	assert.InDelta(t, 0.40, float64(counts[cards.RarityLegendary])/n, 0.05)
	assert.InDelta(t, 0.20, float64(counts[cards.RarityMythical])/n, 0.05)
}

func TestServiceWithoutClientFallsBack(t *testing.T) {
	svc := NewService(nil, rand.New(rand.NewSource(1)))

	pack := svc.GeneratePack(context.Background())
	require.Len(t, pack, PackSize)
	ids := map[string]bool{}
	for _, card := range pack {
		assert.NotEmpty(t, card.ID, "service stamps identity")
		assert.False(t, ids[card.ID])
		ids[card.ID] = true
	}

	_, err := svc.GenerateArt(context.Background(), pack[0])
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestEditArtValidation(t *testing.T) {
	svc := NewService(nil, rand.New(rand.NewSource(1)))

	_, err := svc.EditArt(context.Background(), []byte("img"), "   ")
	assert.ErrorIs(t, err, ErrEmptyInstruction)

	_, err = svc.EditArt(context.Background(), []byte("not an image"), "add snow")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyInstruction)
}
