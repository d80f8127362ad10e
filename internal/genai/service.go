// internal/genai/service.go
//
// The production Generator: rolls rarity slots, calls the client, and
// falls back to static content on any pack-text failure so pack opening
// never blocks the player. Art failures propagate — the caller flags a
// retryable per-card error state instead.

package genai

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/whoamaiii/jenjenmonster/internal/cards"
	"github.com/whoamaiii/jenjenmonster/internal/imaging"
)

// Service implements Generator. A nil client means "unconfigured": packs
// come from the fallback and art generation reports ErrNoImage.
type Service struct {
	client *Client

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewService constructs the production Generator.
func NewService(client *Client, rng *rand.Rand) *Service {
	return &Service{client: client, rng: rng}
}

// GeneratePack returns a pack of PackSize cards, already stamped with
// time-ordered IDs and shiny rolls. Ownership is the caller's to set.
func (s *Service) GeneratePack(ctx context.Context) []*cards.Card {
	s.mu.Lock()
	slots := rollSlots(s.rng)
	shiny := make([]bool, PackSize)
	for i := range shiny {
		shiny[i] = rollShiny(s.rng)
	}
	s.mu.Unlock()

	var pack []*cards.Card
	if s.client != nil {
		generated, err := s.client.GenerateCards(ctx, slots)
		if err != nil {
			log.Warn().Err(err).Msg("pack generation failed, using fallback pack")
		} else {
			pack = generated
		}
	}
	if pack == nil {
		pack = FallbackPack()
	}

	for i, card := range pack {
		card.ID = cards.NewID()
		card.Shiny = shiny[i]
	}
	return pack
}

// GenerateArt renders a card's art prompt, enriched with identity cues.
func (s *Service) GenerateArt(ctx context.Context, card *cards.Card) ([]byte, error) {
	if s.client == nil {
		return nil, ErrNoImage
	}
	prompt := fmt.Sprintf("%s. Trading card art for %q, a %s %s creature.",
		card.ArtPrompt, card.Name, card.Rarity, card.Type)
	return s.client.GenerateImage(ctx, prompt)
}

// EditArt validates the instruction and source image, then asks the
// collaborator for an edited rendering.
func (s *Service) EditArt(ctx context.Context, image []byte, instruction string) ([]byte, error) {
	cleaned := SanitizeInstruction(instruction)
	if cleaned == "" {
		return nil, ErrEmptyInstruction
	}
	if _, err := imaging.Decode(image); err != nil {
		return nil, fmt.Errorf("genai: source image: %w", err)
	}
	if s.client == nil {
		return nil, ErrNoImage
	}
	return s.client.EditImage(ctx, image, cleaned)
}
