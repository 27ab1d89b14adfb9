package scheduling

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fireRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *fireRecorder) fire(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, key)
}

func (r *fireRecorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == key {
			n++
		}
	}
	return n
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer[string](30*time.Millisecond, rec.fire)
	defer d.Close()

	assert.False(t, d.Schedule("doc-1"))
	assert.True(t, d.Schedule("doc-1"))
	assert.True(t, d.Schedule("doc-1"))

	assert.Eventually(t, func() bool { return rec.count("doc-1") == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count("doc-1"))
	assert.False(t, d.Pending("doc-1"))
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer[string](20*time.Millisecond, rec.fire)
	defer d.Close()

	d.Schedule("a")
	d.Schedule("b")

	assert.Eventually(t, func() bool {
		return rec.count("a") == 1 && rec.count("b") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncer_CancelPreventsFire(t *testing.T) {
	var fired int32
	d := NewDebouncer[string](20*time.Millisecond, func(string) { atomic.AddInt32(&fired, 1) })
	defer d.Close()

	d.Schedule("doc")
	assert.True(t, d.Cancel("doc"))
	assert.False(t, d.Cancel("doc"))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestDebouncer_FlushFiresOnceImmediately(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer[string](time.Hour, rec.fire)
	defer d.Close()

	assert.False(t, d.Flush("doc"), "nothing pending")
	assert.Equal(t, 0, rec.count("doc"))

	d.Schedule("doc")
	assert.True(t, d.Flush("doc"))
	assert.Equal(t, 1, rec.count("doc"))
	assert.False(t, d.Pending("doc"))
}

func TestDebouncer_CloseRejectsScheduling(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer[string](10*time.Millisecond, rec.fire)

	d.Schedule("doc")
	d.Close()
	d.Schedule("doc")

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, rec.count("doc"))
	assert.Empty(t, d.PendingKeys())
}

func TestDebouncer_SetWindow(t *testing.T) {
	d := NewDebouncer[string](time.Second, func(string) {})
	defer d.Close()

	d.SetWindow(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, d.Window())

	d.SetWindow(0)
	assert.Equal(t, 250*time.Millisecond, d.Window(), "non-positive windows are ignored")
}
