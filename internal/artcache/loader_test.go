package artcache

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualSched queues deferred work until the test fires it.
type manualSched struct {
	mu    sync.Mutex
	tasks []func()
}

func (s *manualSched) After(d time.Duration, fn func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, fn)
	s.mu.Unlock()
}

func (s *manualSched) fire() {
	for {
		s.mu.Lock()
		if len(s.tasks) == 0 {
			s.mu.Unlock()
			return
		}
		batch := s.tasks
		s.tasks = nil
		s.mu.Unlock()
		for _, fn := range batch {
			fn()
		}
	}
}

func jpegPayload(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))
	return buf.Bytes()
}

// fakeFetcher is a scriptable payload source.
type fakeFetcher struct {
	mu        sync.Mutex
	cached    map[string][]byte
	generated []byte
	fetchErr  error
	genErr    error
	fetches   int
	generates int
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, false, f.fetchErr
	}
	data, ok := f.cached[id]
	return data, ok, nil
}

func (f *fakeFetcher) Generate(ctx context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generates++
	if f.genErr != nil {
		return nil, f.genErr
	}
	// Generation persists to the cache, so later fetches hit.
	if f.cached == nil {
		f.cached = map[string][]byte{}
	}
	f.cached[id] = f.generated
	return f.generated, nil
}

func newTestLoader(f *fakeFetcher) (*Loader, *manualSched) {
	sched := &manualSched{}
	return New(f, sched, DefaultShowDelay, DefaultHideDelay), sched
}

func TestVisibleLoadsFromCache(t *testing.T) {
	f := &fakeFetcher{cached: map[string][]byte{"c1": jpegPayload(t)}}
	l, sched := newTestLoader(f)

	l.SetVisible("c1")
	assert.Equal(t, Status{Visible: true}, l.StatusOf("c1"), "nothing loads before the debounce")

	sched.fire()
	st := l.StatusOf("c1")
	assert.True(t, st.Loaded)
	assert.False(t, st.Loading)
	assert.Equal(t, 1, l.HandleCount())
	assert.Equal(t, 0, f.generates, "cache hit skips generation")
}

func TestVisibleGeneratesOnCacheMiss(t *testing.T) {
	f := &fakeFetcher{generated: jpegPayload(t)}
	l, sched := newTestLoader(f)

	l.SetVisible("c1")
	sched.fire()

	assert.True(t, l.StatusOf("c1").Loaded)
	assert.Equal(t, 1, f.generates)
}

func TestHideBeforeDebounceCancelsLoad(t *testing.T) {
	f := &fakeFetcher{cached: map[string][]byte{"c1": jpegPayload(t)}}
	l, sched := newTestLoader(f)

	l.SetVisible("c1")
	l.SetHidden("c1")
	sched.fire()

	assert.Equal(t, 0, f.fetches, "the stale show timer self-cancels")
	assert.Equal(t, 0, l.HandleCount())
}

func TestHideReleasesAfterHysteresis(t *testing.T) {
	f := &fakeFetcher{cached: map[string][]byte{"c1": jpegPayload(t)}}
	l, sched := newTestLoader(f)

	l.SetVisible("c1")
	sched.fire()
	require.Equal(t, 1, l.HandleCount())

	l.SetHidden("c1")
	require.Equal(t, 1, l.HandleCount(), "handle survives until the hide window passes")
	sched.fire()
	assert.Equal(t, 0, l.HandleCount())
	assert.False(t, l.StatusOf("c1").Loaded)
}

func TestReVisibleCancelsPendingRelease(t *testing.T) {
	f := &fakeFetcher{cached: map[string][]byte{"c1": jpegPayload(t)}}
	l, sched := newTestLoader(f)

	l.SetVisible("c1")
	sched.fire()
	require.Equal(t, 1, l.HandleCount())

	// Flip hidden then visible again before the hide timer fires: the
	// queued release is stale and the handle must survive.
	l.SetHidden("c1")
	l.SetVisible("c1")
	sched.fire()
	assert.Equal(t, 1, l.HandleCount())
}

func TestAtMostOneHandlePerCard(t *testing.T) {
	f := &fakeFetcher{cached: map[string][]byte{"c1": jpegPayload(t)}}
	l, sched := newTestLoader(f)

	l.SetVisible("c1")
	l.SetVisible("c1")
	sched.fire()
	sched.fire()
	assert.Equal(t, 1, l.HandleCount())

	first := l.entries["c1"].handle
	l.SetVisible("c1")
	sched.fire()
	assert.Same(t, first, l.entries["c1"].handle)
}

func TestFetchFailureFlagsRetryableError(t *testing.T) {
	f := &fakeFetcher{fetchErr: errors.New("db down")}
	l, sched := newTestLoader(f)

	l.SetVisible("c1")
	sched.fire()

	st := l.StatusOf("c1")
	assert.True(t, st.Failed)
	assert.False(t, st.Loaded)

	// No spontaneous retries.
	sched.fire()
	assert.Equal(t, 1, f.fetches)

	// An explicit retry clears the flag and loads.
	f.mu.Lock()
	f.fetchErr = nil
	f.cached = map[string][]byte{"c1": jpegPayload(t)}
	f.mu.Unlock()
	l.Retry("c1")
	sched.fire()
	assert.True(t, l.StatusOf("c1").Loaded)
	assert.False(t, l.StatusOf("c1").Failed)
}

func TestUndecodablePayloadFails(t *testing.T) {
	f := &fakeFetcher{cached: map[string][]byte{"c1": []byte("junk")}}
	l, sched := newTestLoader(f)

	l.SetVisible("c1")
	sched.fire()
	assert.True(t, l.StatusOf("c1").Failed)
}

func TestForgetReleasesHandleExactlyOnce(t *testing.T) {
	f := &fakeFetcher{cached: map[string][]byte{"c1": jpegPayload(t)}}
	l, sched := newTestLoader(f)

	l.SetVisible("c1")
	sched.fire()
	h := l.entries["c1"].handle
	require.NotNil(t, h)

	l.Forget("c1")
	assert.Nil(t, h.Image())
	assert.Equal(t, Status{}, l.StatusOf("c1"))

	// Releasing again (by any path) is a no-op.
	h.Release()
	l.Forget("c1")
	assert.Equal(t, 0, l.HandleCount())
}

func TestHiddenWhileLoadingDropsPayload(t *testing.T) {
	f := &fakeFetcher{cached: map[string][]byte{"c1": jpegPayload(t)}}
	sched := &manualSched{}
	l := New(f, sched, DefaultShowDelay, DefaultHideDelay)

	l.SetVisible("c1")

	// Hide between debounce expiry and load: simulate by flipping hidden
	// first, then running the stale-seq load directly.
	l.mu.Lock()
	seq := l.entries["c1"].seq
	l.mu.Unlock()
	l.SetHidden("c1")
	l.load("c1", seq)

	assert.Equal(t, 0, l.HandleCount())
}
