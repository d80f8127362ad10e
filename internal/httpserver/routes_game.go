// internal/httpserver/routes_game.go
//
// HTTP routes for the board. One live session per owner; the session is
// restored from its saved snapshot on first touch. Engine rejections
// (illegal placement, empty-target power-up) come back as 200s with a
// signal flag or 400s with an error code — never state mutation.

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/whoamaiii/jenjenmonster/internal/board"
	"github.com/whoamaiii/jenjenmonster/internal/powerup"
	"github.com/whoamaiii/jenjenmonster/internal/store"
)

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleGameNew)
		r.Get("/state", s.handleGameState)
		r.Post("/place", s.handlePlace)
		r.Post("/hold", s.handleHold)
		r.Post("/rotate", s.handleRotate)
		r.Post("/reset", s.handleGameReset)
		r.Post("/powerup/arm", s.handlePowerUpArm)
		r.Post("/powerup/apply", s.handlePowerUpApply)
		r.Post("/powerup/buy", s.handlePowerUpBuy)
	})
}

// gameStateRes is the common response shape for board endpoints.
type gameStateRes struct {
	State     board.State          `json:"state"`
	Armed     powerup.Kind         `json:"armed,omitempty"`
	Inventory map[powerup.Kind]int `json:"inventory"`
	Coins     int                  `json:"coins"`
}

func (s *Server) stateRes(w http.ResponseWriter, r *http.Request, ps *playSession) gameStateRes {
	coins, err := store.Coins(r.Context(), s.kv, ps.owner)
	if err != nil {
		log.Warn().Err(err).Str("owner", ps.owner).Msg("read coins")
	}
	return gameStateRes{
		State:     ps.eng.State(),
		Armed:     ps.armedKind(),
		Inventory: ps.inv.Snapshot(),
		Coins:     coins,
	}
}

// handleGameNew ensures a session exists (restoring a saved snapshot if
// one is present) and returns its state.
func (s *Server) handleGameNew(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerID(w, r)
	ps := s.reg.obtain(r.Context(), owner)
	_ = json.NewEncoder(w).Encode(s.stateRes(w, r, ps))
}

// handleGameState returns the current board state.
func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerID(w, r)
	ps := s.reg.obtain(r.Context(), owner)
	_ = json.NewEncoder(w).Encode(s.stateRes(w, r, ps))
}

// placeReq is the payload for POST /game/place.
type placeReq struct {
	Index int `json:"index"`
	Row   int `json:"row"`
	Col   int `json:"col"`
}

// handlePlace runs a placement transition.
func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	owner := s.ownerID(w, r)
	ps := s.reg.obtain(r.Context(), owner)
	res := ps.eng.Place(req.Index, req.Row, req.Col)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"result": res,
		"game":   s.stateRes(w, r, ps),
	})
}

type indexReq struct {
	Index int `json:"index"`
}

// handleHold swaps a dock piece with the hold slot.
func (s *Server) handleHold(w http.ResponseWriter, r *http.Request) {
	var req indexReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	owner := s.ownerID(w, r)
	ps := s.reg.obtain(r.Context(), owner)
	ok := ps.eng.Hold(req.Index)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":   ok,
		"game": s.stateRes(w, r, ps),
	})
}

// handleRotate rotates a dock piece in place.
func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	var req indexReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	owner := s.ownerID(w, r)
	ps := s.reg.obtain(r.Context(), owner)
	ok := ps.eng.Rotate(req.Index)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":   ok,
		"game": s.stateRes(w, r, ps),
	})
}

// handleGameReset wipes the board for a fresh run.
func (s *Server) handleGameReset(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerID(w, r)
	ps := s.reg.obtain(r.Context(), owner)
	ps.eng.Reset()
	ps.arm("")
	_ = json.NewEncoder(w).Encode(s.stateRes(w, r, ps))
}

// ------------------------------ power-ups ----------------------------------

type kindReq struct {
	Kind powerup.Kind `json:"kind"`
}

// handlePowerUpArm selects a held power-up for the next target click.
// Dock-refresh is not cell-targeted: it consumes and fires immediately.
func (s *Server) handlePowerUpArm(w http.ResponseWriter, r *http.Request) {
	var req kindReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Kind.Valid() {
		http.Error(w, `{"error":"bad_kind"}`, http.StatusBadRequest)
		return
	}
	owner := s.ownerID(w, r)
	ps := s.reg.obtain(r.Context(), owner)
	if ps.inv.Count(req.Kind) <= 0 {
		http.Error(w, `{"error":"none_held"}`, http.StatusBadRequest)
		return
	}
	if req.Kind == powerup.KindRefresh {
		ps.inv.Consume(req.Kind)
		s.reg.saveInventory(r.Context(), ps)
		ps.eng.RegenerateDock()
	} else {
		ps.arm(req.Kind)
	}
	_ = json.NewEncoder(w).Encode(s.stateRes(w, r, ps))
}

type targetReq struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// handlePowerUpApply resolves the armed power-up against a target cell.
// Invalid targets (empty cell for color/single) reject with no mutation.
func (s *Server) handlePowerUpApply(w http.ResponseWriter, r *http.Request) {
	var req targetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	owner := s.ownerID(w, r)
	ps := s.reg.obtain(r.Context(), owner)
	kind := ps.armedKind()
	if kind == "" {
		http.Error(w, `{"error":"nothing_armed"}`, http.StatusBadRequest)
		return
	}
	res, err := powerup.Apply(kind, req.Row, req.Col, ps.eng.GridSnapshot())
	if err != nil {
		http.Error(w, `{"error":"invalid_target"}`, http.StatusBadRequest)
		return
	}
	if !ps.inv.Consume(kind) {
		http.Error(w, `{"error":"none_held"}`, http.StatusBadRequest)
		return
	}
	ps.arm("")
	s.reg.saveInventory(r.Context(), ps)
	points := ps.eng.CommitPowerUp(res.Grid, res.Cleared)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"cleared": res.Cleared,
		"points":  points,
		"game":    s.stateRes(w, r, ps),
	})
}

// handlePowerUpBuy converts coins into one inventory unit. The purchase
// fails (nothing changes) when the balance is short. Dock-refresh fires
// immediately instead of arming; other kinds are armed pending a target.
func (s *Server) handlePowerUpBuy(w http.ResponseWriter, r *http.Request) {
	var req kindReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Kind.Valid() {
		http.Error(w, `{"error":"bad_kind"}`, http.StatusBadRequest)
		return
	}
	owner := s.ownerID(w, r)
	ps := s.reg.obtain(r.Context(), owner)

	ok, err := store.SpendCoins(r.Context(), s.kv, owner, powerup.Costs[req.Kind])
	if err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("spend coins")
		http.Error(w, `{"error":"store_error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"insufficient_coins"}`, http.StatusBadRequest)
		return
	}

	ps.inv.Grant(req.Kind)
	if req.Kind == powerup.KindRefresh {
		ps.inv.Consume(req.Kind)
		ps.eng.RegenerateDock()
	} else {
		ps.arm(req.Kind)
	}
	s.reg.saveInventory(r.Context(), ps)
	_ = json.NewEncoder(w).Encode(s.stateRes(w, r, ps))
}
