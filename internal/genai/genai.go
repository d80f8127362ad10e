// internal/genai/genai.go
//
// Boundary to the card-generation AI collaborator.
//
// The rest of the app talks to the Generator interface only. The real
// implementation (Service) wraps an OpenAI-compatible HTTP client and
// degrades per the error-handling policy: pack-text failure falls back to
// static content so the player is never blocked; art failure surfaces to
// the caller, which flags a retryable per-card error state.

package genai

import (
	"context"
	"errors"
	"strings"

	"github.com/whoamaiii/jenjenmonster/internal/cards"
)

// PackSize is the number of cards in one pack.
const PackSize = 5

var (
	// ErrEmptyInstruction rejects an edit whose instruction is empty after
	// sanitation.
	ErrEmptyInstruction = errors.New("genai: empty edit instruction")
	// ErrNoImage reports that the collaborator produced no image.
	ErrNoImage = errors.New("genai: no image returned")
)

// Generator produces card metadata and art.
type Generator interface {
	// GeneratePack returns PackSize card records with Norwegian name,
	// flavor and move text and an English art prompt. Never fails: on
	// collaborator error it returns the static fallback pack.
	GeneratePack(ctx context.Context) []*cards.Card

	// GenerateArt produces image bytes for a card's art prompt.
	GenerateArt(ctx context.Context, card *cards.Card) ([]byte, error)

	// EditArt applies an instruction to existing image bytes. Fails with
	// ErrEmptyInstruction when the instruction sanitizes to nothing, or
	// when the source image cannot be decoded.
	EditArt(ctx context.Context, image []byte, instruction string) ([]byte, error)
}

const maxInstructionLen = 500

// SanitizeInstruction trims, caps length, and strips angle brackets from
// an edit instruction. Returns "" when nothing usable remains.
func SanitizeInstruction(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	runes := []rune(s)
	if len(runes) > maxInstructionLen {
		runes = runes[:maxInstructionLen]
	}
	return strings.TrimSpace(string(runes))
}
