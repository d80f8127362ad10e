// internal/httpserver/registry.go
//
// In-memory registry of live play sessions, one per owner (user ID or
// anonymous cookie ID). Sessions are built lazily: a saved non-terminal
// snapshot is restored verbatim, otherwise a fresh dock is generated.
//
// The registry wires the engine's hooks to the surrounding layers:
//   - OnChange      → continuous autosave of the session snapshot.
//   - OnPowerUpReward → grant a random power-up unit and persist inventory.
//   - OnGameOver    → purge the snapshot and convert the final score into
//                     coins, XP and a high-score update.

package httpserver

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/whoamaiii/jenjenmonster/internal/board"
	"github.com/whoamaiii/jenjenmonster/internal/powerup"
	"github.com/whoamaiii/jenjenmonster/internal/session"
	"github.com/whoamaiii/jenjenmonster/internal/store"
)

const (
	coinsPerScore = 10 // 1 coin per 10 points at game over
	xpPerScore    = 20 // 1 xp per 20 points at game over
)

// playSession bundles one owner's engine, inventory, and armed power-up.
type playSession struct {
	owner string
	eng   *board.Engine
	inv   *powerup.Inventory

	mu    sync.Mutex // guards armed
	armed powerup.Kind
}

func (ps *playSession) arm(k powerup.Kind) {
	ps.mu.Lock()
	ps.armed = k
	ps.mu.Unlock()
}

func (ps *playSession) armedKind() powerup.Kind {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.armed
}

// registry holds live sessions keyed by owner.
type registry struct {
	kv       store.Store
	sessions session.Store
	sched    board.Scheduler

	mu   sync.Mutex
	live map[string]*playSession
}

func newRegistry(kv store.Store, sessions session.Store, sched board.Scheduler) *registry {
	return &registry{
		kv:       kv,
		sessions: sessions,
		sched:    sched,
		live:     make(map[string]*playSession),
	}
}

// get returns the owner's live session without creating one.
func (rg *registry) get(owner string) (*playSession, bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	ps, ok := rg.live[owner]
	return ps, ok
}

// obtain returns the owner's session, restoring or creating it on first
// touch.
func (rg *registry) obtain(ctx context.Context, owner string) *playSession {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	if ps, ok := rg.live[owner]; ok {
		return ps
	}

	ps := &playSession{owner: owner, inv: rg.loadInventory(ctx, owner)}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	recovery := func() bool {
		if ps.inv.Total() > 0 {
			return true
		}
		coins, err := store.Coins(context.Background(), rg.kv, owner)
		if err != nil {
			log.Warn().Err(err).Str("owner", owner).Msg("recovery coin check")
			return false
		}
		return coins >= powerup.CheapestCost()
	}
	hooks := board.Hooks{
		OnChange: func(snap board.Snapshot) {
			if err := rg.sessions.Save(context.Background(), owner, snap); err != nil {
				log.Warn().Err(err).Str("owner", owner).Msg("autosave snapshot")
			}
		},
		OnPowerUpReward: func() {
			kind := ps.inv.GrantRandom(rng)
			rg.saveInventory(context.Background(), ps)
			log.Info().Str("owner", owner).Str("kind", string(kind)).Msg("power-up granted")
		},
		OnGameOver: func(final int) {
			rg.finishGame(owner, final)
		},
	}
	ps.eng = board.New(rng, rg.sched, recovery, hooks)

	if snap, err := rg.sessions.Load(ctx, owner); err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("load snapshot")
	} else if snap != nil {
		if err := ps.eng.Restore(*snap); err != nil {
			log.Warn().Err(err).Str("owner", owner).Msg("restore snapshot")
		}
	}

	rg.live[owner] = ps
	return ps
}

// finishGame converts a terminal score into economy rewards and purges
// the saved snapshot.
func (rg *registry) finishGame(owner string, final int) {
	ctx := context.Background()
	if err := rg.sessions.Clear(ctx, owner); err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("clear snapshot")
	}
	if _, err := store.AddCoins(ctx, rg.kv, owner, final/coinsPerScore); err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("game-over coins")
	}
	if _, _, err := store.AddXP(ctx, rg.kv, owner, final/xpPerScore); err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("game-over xp")
	}
	if _, _, err := store.BumpHighScore(ctx, rg.kv, owner, final); err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("game-over high score")
	}
	log.Info().Str("owner", owner).Int("finalScore", final).Msg("game over")
}

// saveAll snapshots every live session; used by the periodic autosave.
func (rg *registry) saveAll(ctx context.Context) {
	rg.mu.Lock()
	live := make([]*playSession, 0, len(rg.live))
	for _, ps := range rg.live {
		live = append(live, ps)
	}
	rg.mu.Unlock()

	for _, ps := range live {
		snap, ok := ps.eng.Snapshot()
		if !ok {
			continue
		}
		if err := rg.sessions.Save(ctx, ps.owner, snap); err != nil {
			log.Warn().Err(err).Str("owner", ps.owner).Msg("periodic autosave")
		}
	}
}

// loadInventory reads the persisted power-up blob, or a fresh inventory.
func (rg *registry) loadInventory(ctx context.Context, owner string) *powerup.Inventory {
	inv := powerup.NewInventory()
	data, ok, err := rg.kv.Get(ctx, owner, store.KeyPowerUps)
	if err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("load inventory")
		return inv
	}
	if ok {
		if err := json.Unmarshal([]byte(data), inv); err != nil {
			log.Warn().Err(err).Str("owner", owner).Msg("parse inventory")
		}
	}
	return inv
}

// saveInventory persists the power-up blob, best effort.
func (rg *registry) saveInventory(ctx context.Context, ps *playSession) {
	data, err := json.Marshal(ps.inv)
	if err != nil {
		log.Warn().Err(err).Str("owner", ps.owner).Msg("marshal inventory")
		return
	}
	if err := rg.kv.Set(ctx, ps.owner, store.KeyPowerUps, string(data)); err != nil {
		log.Warn().Err(err).Str("owner", ps.owner).Msg("save inventory")
	}
}
