package daily

import (
	"context"
	"time"

	"github.com/whoamaiii/jenjenmonster/internal/store"
)

const (
	baseReward   = 50
	streakReward = 25
	maxReward    = 200
)

// ClaimResult reports the outcome of a daily-reward claim.
type ClaimResult struct {
	Claimed bool   `json:"claimed"` // false when today was already claimed
	Date    string `json:"date"`
	Streak  int    `json:"streak"`
	Coins   int    `json:"coins"` // coin reward granted by this claim
}

// Rewards tracks the once-per-day reward and streak per owner over the
// keyed store (last claimed date + streak counter).
type Rewards struct {
	kv store.Store
}

// NewRewards constructs the daily-reward tracker.
func NewRewards(kv store.Store) *Rewards {
	return &Rewards{kv: kv}
}

// Status returns the owner's current streak and whether today is claimed.
func (rw *Rewards) Status(ctx context.Context, owner string, now time.Time) (ClaimResult, error) {
	last, _, err := rw.kv.Get(ctx, owner, store.KeyDailyLast)
	if err != nil {
		return ClaimResult{}, err
	}
	streak, err := store.GetInt(ctx, rw.kv, owner, store.KeyDailyStreak)
	if err != nil {
		return ClaimResult{}, err
	}
	today := DateKey(now)
	return ClaimResult{Claimed: last == today, Date: today, Streak: streak}, nil
}

// Claim grants today's reward once. Consecutive-day claims grow the
// streak; a gap resets it to 1. The coin reward grows with the streak,
// capped at maxReward.
func (rw *Rewards) Claim(ctx context.Context, owner string, now time.Time) (ClaimResult, error) {
	today := DateKey(now)
	yesterday := DateKey(now.AddDate(0, 0, -1))

	last, _, err := rw.kv.Get(ctx, owner, store.KeyDailyLast)
	if err != nil {
		return ClaimResult{}, err
	}
	if last == today {
		streak, _ := store.GetInt(ctx, rw.kv, owner, store.KeyDailyStreak)
		return ClaimResult{Claimed: false, Date: today, Streak: streak}, nil
	}

	streak := 1
	if last == yesterday {
		prev, err := store.GetInt(ctx, rw.kv, owner, store.KeyDailyStreak)
		if err != nil {
			return ClaimResult{}, err
		}
		streak = prev + 1
	}

	coins := baseReward + streakReward*(streak-1)
	if coins > maxReward {
		coins = maxReward
	}

	if err := rw.kv.Set(ctx, owner, store.KeyDailyLast, today); err != nil {
		return ClaimResult{}, err
	}
	if err := store.SetInt(ctx, rw.kv, owner, store.KeyDailyStreak, streak); err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{Claimed: true, Date: today, Streak: streak, Coins: coins}, nil
}
