package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// BonusIndex returns a deterministic index for a date using
// HMAC(salt, YYYY-MM-DD) % n. Used to pick the day's bonus power-up kind
// so every player gets the same bonus on the same day.
func BonusIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	dk := DateKey(date)
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(dk))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
