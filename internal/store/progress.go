// internal/store/progress.go
//
// Economy helpers layered on the keyed store: coin wallet, high score,
// and the XP/level curve. All are simple read-modify-write operations;
// each owner's requests are serialized by the session registry upstream,
// so no cross-owner contention exists on these keys.

package store

import (
	"context"
	"math"
	"strconv"
)

// GetInt reads a scalar key as an integer; absent or malformed values
// read as 0.
func GetInt(ctx context.Context, s Store, owner, key string) (int, error) {
	v, ok, err := s.Get(ctx, owner, key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// SetInt writes a scalar key as an integer.
func SetInt(ctx context.Context, s Store, owner, key string, n int) error {
	return s.Set(ctx, owner, key, strconv.Itoa(n))
}

// Coins returns the owner's coin balance.
func Coins(ctx context.Context, s Store, owner string) (int, error) {
	return GetInt(ctx, s, owner, KeyCoins)
}

// AddCoins credits n coins and returns the new balance.
func AddCoins(ctx context.Context, s Store, owner string, n int) (int, error) {
	bal, err := Coins(ctx, s, owner)
	if err != nil {
		return 0, err
	}
	bal += n
	if bal < 0 {
		bal = 0
	}
	return bal, SetInt(ctx, s, owner, KeyCoins, bal)
}

// SpendCoins debits n coins. Returns false (balance untouched) when the
// balance is insufficient.
func SpendCoins(ctx context.Context, s Store, owner string, n int) (bool, error) {
	bal, err := Coins(ctx, s, owner)
	if err != nil {
		return false, err
	}
	if bal < n {
		return false, nil
	}
	return true, SetInt(ctx, s, owner, KeyCoins, bal-n)
}

// BumpHighScore records score if it beats the stored high score.
// Returns the resulting high score and whether it changed.
func BumpHighScore(ctx context.Context, s Store, owner string, score int) (int, bool, error) {
	best, err := GetInt(ctx, s, owner, KeyHighScore)
	if err != nil {
		return 0, false, err
	}
	if score <= best {
		return best, false, nil
	}
	return score, true, SetInt(ctx, s, owner, KeyHighScore, score)
}

// LevelForXP maps accumulated XP to a level on a quadratic curve:
// level n requires 100·(n−1)² XP.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return int(math.Floor(math.Sqrt(float64(xp)/100))) + 1
}

// AddXP credits XP and returns the new total and level.
func AddXP(ctx context.Context, s Store, owner string, delta int) (xp, level int, err error) {
	xp, err = GetInt(ctx, s, owner, KeyXP)
	if err != nil {
		return 0, 0, err
	}
	xp += delta
	if xp < 0 {
		xp = 0
	}
	if err := SetInt(ctx, s, owner, KeyXP, xp); err != nil {
		return 0, 0, err
	}
	return xp, LevelForXP(xp), nil
}
