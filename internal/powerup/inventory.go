// internal/powerup/inventory.go
//
// Power-up inventory: a concurrency-safe mapping from kind to a
// non-negative count. Mutated only by consumption (Apply path) or by
// reward/purchase (Grant). Serializes to JSON for the keyed blob store.

package powerup

import (
	"encoding/json"
	"math/rand"
	"sync"
)

// Inventory tracks how many units of each power-up the player holds.
type Inventory struct {
	mu     sync.Mutex
	counts map[Kind]int
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{counts: make(map[Kind]int)}
}

// Count returns the held units of kind k.
func (inv *Inventory) Count(k Kind) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.counts[k]
}

// Total returns the number of units held across all kinds.
func (inv *Inventory) Total() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	n := 0
	for _, c := range inv.counts {
		n += c
	}
	return n
}

// Grant adds one unit of kind k.
func (inv *Inventory) Grant(k Kind) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.counts[k]++
}

// GrantRandom adds one unit of a uniformly random kind and returns it.
func (inv *Inventory) GrantRandom(rng *rand.Rand) Kind {
	kinds := Kinds()
	k := kinds[rng.Intn(len(kinds))]
	inv.Grant(k)
	return k
}

// Consume removes one unit of kind k. Returns false (and changes nothing)
// if none are held.
func (inv *Inventory) Consume(k Kind) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.counts[k] <= 0 {
		return false
	}
	inv.counts[k]--
	return true
}

// Snapshot returns a copy of the counts, omitting zero entries.
func (inv *Inventory) Snapshot() map[Kind]int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make(map[Kind]int, len(inv.counts))
	for k, c := range inv.counts {
		if c > 0 {
			out[k] = c
		}
	}
	return out
}

// MarshalJSON serializes the counts map.
func (inv *Inventory) MarshalJSON() ([]byte, error) {
	return json.Marshal(inv.Snapshot())
}

// UnmarshalJSON replaces the counts with the serialized map. Negative
// counts are clamped to zero.
func (inv *Inventory) UnmarshalJSON(data []byte) error {
	var counts map[Kind]int
	if err := json.Unmarshal(data, &counts); err != nil {
		return err
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.counts = make(map[Kind]int, len(counts))
	for k, c := range counts {
		if c > 0 {
			inv.counts[k] = c
		}
	}
	return nil
}
