// internal/artcache/loader.go
//
// Visibility-driven loading of decoded card art under a memory ceiling.
//
// Per displayed card the loader tracks a visible/invisible flag with
// hysteresis: becoming visible acquires a decoded handle after a short
// debounce; becoming invisible releases it only after a longer delay, so
// brief scroll-throughs don't thrash decode work. At most one decoded
// handle exists per card id at any instant, and every handle is released
// exactly once — by the hysteresis path or by Forget, never both.
//
// The in-flight set gives at-most-one concurrent generation per card id
// across every viewer: membership check-and-claim happens under the
// loader mutex, with no suspension between check and insert.

package artcache

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/whoamaiii/jenjenmonster/internal/imaging"
)

const (
	// DefaultShowDelay debounces load work on becoming visible.
	DefaultShowDelay = 150 * time.Millisecond
	// DefaultHideDelay is the hysteresis window before release.
	DefaultHideDelay = 2 * time.Second
)

// Scheduler runs fn once after d. Timers need no cancellation support:
// scheduled closures carry a per-entry sequence token and self-cancel.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// TimerScheduler is the production Scheduler.
type TimerScheduler struct{}

func (TimerScheduler) After(d time.Duration, fn func()) { time.AfterFunc(d, fn) }

// Fetcher supplies compressed payloads for the loader.
type Fetcher interface {
	// Fetch returns the persisted compressed payload, or ok=false when the
	// cache holds none.
	Fetch(ctx context.Context, cardID string) (data []byte, ok bool, err error)

	// Generate produces a payload via the generation collaborator, persists
	// it to the cache, and returns the compressed bytes.
	Generate(ctx context.Context, cardID string) ([]byte, error)
}

// Handle owns one decoded image. Release frees it and is safe to call
// more than once; only the first call does anything.
type Handle struct {
	CardID string

	once sync.Once
	img  image.Image
	free func(h *Handle)
}

// Image returns the decoded image, or nil after release.
func (h *Handle) Image() image.Image { return h.img }

// Release frees the decoded resource exactly once.
func (h *Handle) Release() {
	h.once.Do(func() {
		if h.free != nil {
			h.free(h)
		}
		h.img = nil
	})
}

// Status describes a card's loader state for display.
type Status struct {
	Visible bool `json:"visible"`
	Loaded  bool `json:"loaded"`
	Loading bool `json:"loading"`
	Failed  bool `json:"failed"`
}

type entry struct {
	visible bool
	seq     uint64 // bumped on every visibility flip; stale timers self-cancel
	handle  *Handle
	loading bool
	failed  bool
}

// Loader drives fetch/decode/keep/release per displayed card.
type Loader struct {
	fetch     Fetcher
	sched     Scheduler
	showDelay time.Duration
	hideDelay time.Duration

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]struct{}
}

// New constructs a Loader with the given debounce and hysteresis windows.
func New(fetch Fetcher, sched Scheduler, showDelay, hideDelay time.Duration) *Loader {
	return &Loader{
		fetch:     fetch,
		sched:     sched,
		showDelay: showDelay,
		hideDelay: hideDelay,
		entries:   make(map[string]*entry),
		inflight:  make(map[string]struct{}),
	}
}

// SetVisible marks a card on-screen and schedules a debounced load.
func (l *Loader) SetVisible(cardID string) {
	l.mu.Lock()
	e := l.ensure(cardID)
	if e.visible {
		l.mu.Unlock()
		return
	}
	e.visible = true
	e.seq++
	seq := e.seq
	l.mu.Unlock()

	l.sched.After(l.showDelay, func() { l.load(cardID, seq) })
}

// SetHidden marks a card off-screen; after the hysteresis window, if it
// is still hidden, the decoded handle is released.
func (l *Loader) SetHidden(cardID string) {
	l.mu.Lock()
	e, ok := l.entries[cardID]
	if !ok || !e.visible {
		l.mu.Unlock()
		return
	}
	e.visible = false
	e.seq++
	seq := e.seq
	l.mu.Unlock()

	l.sched.After(l.hideDelay, func() {
		l.mu.Lock()
		e, ok := l.entries[cardID]
		if !ok || e.seq != seq || e.visible || e.handle == nil {
			l.mu.Unlock()
			return
		}
		h := e.handle
		e.handle = nil
		l.mu.Unlock()
		h.Release()
	})
}

// Retry clears a card's error state and, if it is still visible, starts
// a fresh load immediately.
func (l *Loader) Retry(cardID string) {
	l.mu.Lock()
	e, ok := l.entries[cardID]
	if !ok {
		l.mu.Unlock()
		return
	}
	e.failed = false
	if !e.visible || e.handle != nil || e.loading {
		l.mu.Unlock()
		return
	}
	seq := e.seq
	l.mu.Unlock()

	l.sched.After(0, func() { l.load(cardID, seq) })
}

// Forget tears down a card's entry (unmount). Its handle, if any, is
// released on this path instead of the hysteresis path.
func (l *Loader) Forget(cardID string) {
	l.mu.Lock()
	e, ok := l.entries[cardID]
	if !ok {
		l.mu.Unlock()
		return
	}
	h := e.handle
	delete(l.entries, cardID)
	l.mu.Unlock()
	if h != nil {
		h.Release()
	}
}

// StatusOf reports a card's loader state.
func (l *Loader) StatusOf(cardID string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[cardID]
	if !ok {
		return Status{}
	}
	return Status{
		Visible: e.visible,
		Loaded:  e.handle != nil,
		Loading: e.loading,
		Failed:  e.failed,
	}
}

// HandleCount returns the number of live decoded handles.
func (l *Loader) HandleCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.handle != nil {
			n++
		}
	}
	return n
}

// load runs after the show debounce: claim the in-flight slot, fetch or
// generate the payload, decode, and install the handle — unless the card
// flipped visibility (seq moved) in the meantime.
func (l *Loader) load(cardID string, seq uint64) {
	l.mu.Lock()
	e, ok := l.entries[cardID]
	if !ok || e.seq != seq || !e.visible || e.handle != nil || e.loading || e.failed {
		l.mu.Unlock()
		return
	}
	if _, busy := l.inflight[cardID]; busy {
		// Another viewer's load is already running for this id.
		l.mu.Unlock()
		return
	}
	l.inflight[cardID] = struct{}{}
	e.loading = true
	l.mu.Unlock()

	data, err := l.acquire(cardID)

	l.mu.Lock()
	delete(l.inflight, cardID)
	e, ok = l.entries[cardID]
	if !ok {
		l.mu.Unlock()
		return
	}
	e.loading = false
	if err != nil {
		e.failed = true
		l.mu.Unlock()
		return
	}
	if e.seq != seq || !e.visible || e.handle != nil {
		// Hidden (or superseded) while loading: drop the raw payload and
		// rely on the cache to reproduce it later.
		l.mu.Unlock()
		return
	}
	img, derr := imaging.Decode(data)
	if derr != nil {
		e.failed = true
		l.mu.Unlock()
		return
	}
	e.handle = &Handle{
		CardID: cardID,
		img:    img,
		free:   l.detach,
	}
	l.mu.Unlock()
}

func (l *Loader) acquire(cardID string) ([]byte, error) {
	ctx := context.Background()
	data, ok, err := l.fetch.Fetch(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if ok {
		return data, nil
	}
	return l.fetch.Generate(ctx, cardID)
}

// detach clears the entry's handle pointer when a handle is released
// directly by its holder rather than through the loader.
func (l *Loader) detach(h *Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[h.CardID]; ok && e.handle == h {
		e.handle = nil
	}
}

func (l *Loader) ensure(cardID string) *entry {
	e, ok := l.entries[cardID]
	if !ok {
		e = &entry{}
		l.entries[cardID] = e
	}
	return e
}
