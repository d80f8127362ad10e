// internal/httpserver/routes_profile.go
//
// Profile and preferences: economy scalars, favorites, mute/intro flags,
// saved grid presets, and the daily reward.
//
// Everything here is a thin veneer over the keyed store; the only logic
// worth the name is the daily claim (streak + deterministic bonus kind).

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/whoamaiii/jenjenmonster/internal/daily"
	"github.com/whoamaiii/jenjenmonster/internal/powerup"
	"github.com/whoamaiii/jenjenmonster/internal/store"
)

// mountProfile registers profile, preference and daily-reward routes.
func (s *Server) mountProfile(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Get("/", s.handleProfile)
		r.Post("/favorites", s.handleSetFavorites)
		r.Post("/muted", s.handleSetMuted)
		r.Post("/intro-seen", s.handleSetIntroSeen)
		r.Post("/presets", s.handleSetPresets)
	})
	r.Get("/daily/status", s.handleDailyStatus)
	r.Post("/daily/claim", s.handleDailyClaim)
}

// profileRes is the aggregate profile payload.
type profileRes struct {
	Coins     int             `json:"coins"`
	HighScore int             `json:"highScore"`
	XP        int             `json:"xp"`
	Level     int             `json:"level"`
	Muted     bool            `json:"muted"`
	IntroSeen bool            `json:"introSeen"`
	Favorites []string        `json:"favorites"`
	Presets   json.RawMessage `json:"presets"`

	Inventory map[powerup.Kind]int `json:"inventory"`
}

// handleProfile aggregates the owner's persisted scalars into one
// response. Individual read failures degrade to zero values.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := s.ownerID(w, r)

	coins, err := store.Coins(ctx, s.kv, owner)
	if err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("profile coins")
	}
	high, _ := store.GetInt(ctx, s.kv, owner, store.KeyHighScore)
	xp, _ := store.GetInt(ctx, s.kv, owner, store.KeyXP)

	res := profileRes{
		Coins:     coins,
		HighScore: high,
		XP:        xp,
		Level:     store.LevelForXP(xp),
		Favorites: []string{},
		Presets:   json.RawMessage("[]"),
		Inventory: map[powerup.Kind]int{},
	}
	if v, ok, _ := s.kv.Get(ctx, owner, store.KeyMuted); ok {
		res.Muted = v == "1"
	}
	if v, ok, _ := s.kv.Get(ctx, owner, store.KeyIntroSeen); ok {
		res.IntroSeen = v == "1"
	}
	if v, ok, _ := s.kv.Get(ctx, owner, store.KeyFavorites); ok {
		if err := json.Unmarshal([]byte(v), &res.Favorites); err != nil {
			log.Warn().Err(err).Str("owner", owner).Msg("parse favorites")
		}
	}
	if v, ok, _ := s.kv.Get(ctx, owner, store.KeyPresets); ok && json.Valid([]byte(v)) {
		res.Presets = json.RawMessage(v)
	}

	if ps, ok := s.reg.get(owner); ok {
		res.Inventory = ps.inv.Snapshot()
	} else if v, ok, _ := s.kv.Get(ctx, owner, store.KeyPowerUps); ok {
		if err := json.Unmarshal([]byte(v), &res.Inventory); err != nil {
			log.Warn().Err(err).Str("owner", owner).Msg("parse inventory")
		}
	}
	_ = json.NewEncoder(w).Encode(res)
}

// handleSetFavorites replaces the favorite-card list wholesale.
func (s *Server) handleSetFavorites(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CardIDs []string `json:"cardIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardIDs == nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	s.setJSONPref(w, r, store.KeyFavorites, req.CardIDs)
}

// handleSetMuted persists the sound preference.
func (s *Server) handleSetMuted(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Muted bool `json:"muted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	s.setBoolPref(w, r, store.KeyMuted, req.Muted)
}

// handleSetIntroSeen marks the tutorial as seen. One-way.
func (s *Server) handleSetIntroSeen(w http.ResponseWriter, r *http.Request) {
	s.setBoolPref(w, r, store.KeyIntroSeen, true)
}

// handleSetPresets stores the client's saved layout presets as an opaque
// JSON document.
func (s *Server) handleSetPresets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Presets json.RawMessage `json:"presets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !json.Valid(req.Presets) {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	owner := s.ownerID(w, r)
	if err := s.kv.Set(r.Context(), owner, store.KeyPresets, string(req.Presets)); err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("save presets")
		http.Error(w, `{"error":"store_error"}`, http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(`{"ok":true}`))
}

// ------------------------------ daily reward -------------------------------

// handleDailyStatus reports today's claim state and the day's bonus kind.
func (s *Server) handleDailyStatus(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerID(w, r)
	now := time.Now()
	st, err := s.daily.Status(r.Context(), owner, now)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("daily status")
		http.Error(w, `{"error":"store_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": st,
		"bonus":  s.dailyBonusKind(now),
	})
}

// handleDailyClaim grants today's reward: coins plus one unit of the
// day's bonus power-up. Claiming twice is a no-op, not an error.
func (s *Server) handleDailyClaim(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerID(w, r)
	now := time.Now()
	res, err := s.daily.Claim(r.Context(), owner, now)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("daily claim")
		http.Error(w, `{"error":"store_error"}`, http.StatusInternalServerError)
		return
	}

	bonus := s.dailyBonusKind(now)
	if res.Claimed {
		if _, err := store.AddCoins(r.Context(), s.kv, owner, res.Coins); err != nil {
			log.Warn().Err(err).Str("owner", owner).Msg("daily coins")
		}
		ps := s.reg.obtain(r.Context(), owner)
		ps.inv.Grant(bonus)
		s.reg.saveInventory(r.Context(), ps)
		log.Info().Str("owner", owner).Int("streak", res.Streak).
			Int("coins", res.Coins).Str("bonus", string(bonus)).Msg("daily reward claimed")
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": res,
		"bonus":  bonus,
	})
}

// dailyBonusKind picks the day's bonus power-up, identical for all
// players on a given date.
func (s *Server) dailyBonusKind(now time.Time) powerup.Kind {
	kinds := powerup.Kinds()
	return kinds[daily.BonusIndex(now, s.opts.DailySalt, len(kinds))]
}

// ------------------------------ pref helpers -------------------------------

func (s *Server) setBoolPref(w http.ResponseWriter, r *http.Request, key string, v bool) {
	owner := s.ownerID(w, r)
	val := "0"
	if v {
		val = "1"
	}
	if err := s.kv.Set(r.Context(), owner, key, val); err != nil {
		log.Error().Err(err).Str("owner", owner).Str("key", key).Msg("save preference")
		http.Error(w, `{"error":"store_error"}`, http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (s *Server) setJSONPref(w http.ResponseWriter, r *http.Request, key string, v any) {
	owner := s.ownerID(w, r)
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := s.kv.Set(r.Context(), owner, key, string(data)); err != nil {
		log.Error().Err(err).Str("owner", owner).Str("key", key).Msg("save preference")
		http.Error(w, `{"error":"store_error"}`, http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(`{"ok":true}`))
}
