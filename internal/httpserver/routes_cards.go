// internal/httpserver/routes_cards.go
//
// HTTP routes for the card collection: pack opening, metadata listing,
// payload fetch, meld, art retry/edit, and the viewport visibility feed
// that drives the art loader.
//
// The Server is the loader's Fetcher: cache first, generation collaborator
// on miss, persisting the result back through the cache.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/whoamaiii/jenjenmonster/internal/artcache"
	"github.com/whoamaiii/jenjenmonster/internal/cards"
	"github.com/whoamaiii/jenjenmonster/internal/genai"
	"github.com/whoamaiii/jenjenmonster/internal/store"
)

// packCost is the coin price of opening one pack.
const packCost = 100

// mountCards registers all collection routes.
func (s *Server) mountCards(r chi.Router) {
	r.Post("/packs/open", s.handleOpenPack)
	r.Route("/cards", func(r chi.Router) {
		r.Get("/", s.handleListCards)
		r.Post("/meld", s.handleMeld)
		r.Get("/{id}", s.handleGetCard)
		r.Get("/{id}/image", s.handleCardImage)
		r.Post("/{id}/art/retry", s.handleArtRetry)
		r.Post("/{id}/art/edit", s.handleArtEdit)
	})
	r.Post("/collection/visibility", s.handleVisibility)
}

// ------------------------------ Fetcher ------------------------------------

// Fetch returns the persisted compressed payload for a card, if any.
func (s *Server) Fetch(ctx context.Context, cardID string) ([]byte, bool, error) {
	data, err := s.cards.ImageData(ctx, cardID)
	if errors.Is(err, cards.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Generate produces art for a card via the collaborator and persists it,
// returning the compressed payload.
func (s *Server) Generate(ctx context.Context, cardID string) ([]byte, error) {
	card, err := s.cards.GetFull(ctx, cardID)
	if err != nil {
		return nil, err
	}
	raw, err := s.gen.GenerateArt(ctx, card)
	if err != nil {
		return nil, err
	}
	card.Image = raw
	if err := s.cards.Put(ctx, card); err != nil {
		return nil, err
	}
	return s.cards.ImageData(ctx, cardID)
}

// ------------------------------ pack opening -------------------------------

// handleOpenPack spends coins and mints five new cards for the owner.
// Text generation failure falls back to static content internally, so
// this endpoint never fails for collaborator reasons.
func (s *Server) handleOpenPack(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerID(w, r)

	ok, err := store.SpendCoins(r.Context(), s.kv, owner, packCost)
	if err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("spend pack coins")
		http.Error(w, `{"error":"store_error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"insufficient_coins"}`, http.StatusBadRequest)
		return
	}

	pack := s.gen.GeneratePack(r.Context())
	for _, card := range pack {
		card.Owner = owner
		if err := s.cards.Put(r.Context(), card); err != nil {
			log.Warn().Err(err).Str("cardId", card.ID).Msg("persist pack card")
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"cards": pack})
}

// ------------------------------ collection ---------------------------------

// cardView decorates card metadata with the loader's display status.
type cardView struct {
	*cards.Card
	Art artcache.Status `json:"art"`
}

// handleListCards returns the owner's collection, metadata only — the
// bulk path never materializes payloads.
func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerID(w, r)
	list, err := s.cards.ListMetadata(r.Context(), owner)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("list cards")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	out := make([]cardView, len(list))
	for i, card := range list {
		out[i] = cardView{Card: card, Art: s.loader.StatusOf(card.ID)}
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleGetCard returns one card's full record; the payload rides along
// base64-encoded.
func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	card, err := s.cards.GetFull(r.Context(), id)
	if errors.Is(err, cards.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if !s.ownsCard(w, r, card) {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"card":  card,
		"image": card.Image, // base64 in JSON; empty when not persisted
		"art":   s.loader.StatusOf(id),
	})
}

// handleCardImage serves the compressed payload directly.
func (s *Server) handleCardImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := s.cards.ImageData(r.Context(), id)
	if errors.Is(err, cards.ErrNotFound) {
		http.Error(w, `{"error":"no_image"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

// meldReq is the payload for POST /cards/meld.
type meldReq struct {
	Name string `json:"name"`
}

// handleMeld consolidates duplicates of a name into the best copy and
// credits the coin reward.
func (s *Server) handleMeld(w http.ResponseWriter, r *http.Request) {
	var req meldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	owner := s.ownerID(w, r)
	res, err := s.cards.Meld(r.Context(), owner, req.Name)
	if errors.Is(err, cards.ErrNothingToMeld) {
		http.Error(w, `{"error":"nothing_to_meld"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("meld")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	balance, err := store.AddCoins(r.Context(), s.kv, owner, res.Reward)
	if err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("meld reward")
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"meld": res, "coins": balance})
}

// ------------------------------ art paths ----------------------------------

// handleArtRetry re-invokes generation for a card whose last attempt
// failed. Synchronous: the player asked and is waiting.
func (s *Server) handleArtRetry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	card, err := s.cards.GetFull(r.Context(), id)
	if errors.Is(err, cards.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err != nil || !s.ownsCard(w, r, card) {
		if err != nil {
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		}
		return
	}
	if _, err := s.Generate(r.Context(), id); err != nil {
		log.Warn().Err(err).Str("cardId", id).Msg("art retry failed")
		http.Error(w, `{"error":"generation_failed"}`, http.StatusBadGateway)
		return
	}
	s.loader.Retry(id)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "art": s.loader.StatusOf(id)})
}

// editReq is the payload for POST /cards/{id}/art/edit.
type editReq struct {
	Instruction string `json:"instruction"`
}

// handleArtEdit applies an edit instruction to the persisted payload.
// On failure the persisted payload is untouched — the display reverts to
// the last known-good state.
func (s *Server) handleArtEdit(w http.ResponseWriter, r *http.Request) {
	var req editReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	card, err := s.cards.GetFull(r.Context(), id)
	if errors.Is(err, cards.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err != nil || !s.ownsCard(w, r, card) {
		if err != nil {
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		}
		return
	}
	if len(card.Image) == 0 {
		http.Error(w, `{"error":"no_image"}`, http.StatusBadRequest)
		return
	}

	edited, err := s.gen.EditArt(r.Context(), card.Image, req.Instruction)
	if errors.Is(err, genai.ErrEmptyInstruction) {
		http.Error(w, `{"error":"empty_instruction"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("cardId", id).Msg("art edit failed")
		http.Error(w, `{"error":"edit_failed"}`, http.StatusBadGateway)
		return
	}

	card.Image = edited
	if err := s.cards.Put(r.Context(), card); err != nil {
		log.Error().Err(err).Str("cardId", id).Msg("persist edited art")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	// Drop any stale decoded handle so the next view decodes the edit.
	s.loader.Forget(id)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// ------------------------------ visibility ---------------------------------

// visibilityReq reports which displayed cards entered/left the viewport.
type visibilityReq struct {
	Visible []string `json:"visible"`
	Hidden  []string `json:"hidden"`
}

// handleVisibility feeds the loader. Load/evict is asynchronous; the
// response reflects the loader state at call time.
func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	for _, id := range req.Visible {
		s.loader.SetVisible(id)
	}
	for _, id := range req.Hidden {
		s.loader.SetHidden(id)
	}
	statuses := make(map[string]artcache.Status, len(req.Visible)+len(req.Hidden))
	for _, id := range append(req.Visible, req.Hidden...) {
		statuses[id] = s.loader.StatusOf(id)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"art": statuses})
}

// ownsCard enforces per-owner access; writes the error response itself
// when access is denied.
func (s *Server) ownsCard(w http.ResponseWriter, r *http.Request, card *cards.Card) bool {
	owner := s.ownerID(w, r)
	if card.Owner != owner {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return false
	}
	return true
}
