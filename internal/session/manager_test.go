package session

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ForeFoldAi/eye-care-sub001/pkg/interfaces"
	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// fakeClock drives scheduled tasks with virtual time.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) interfaces.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves virtual time forward and fires due tasks.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	var rest []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(c.now) {
			due = append(due, t)
		} else if !t.stopped {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func newTestManager(clock interfaces.Clock) *Manager {
	return NewManager(clock, 5*time.Second, zerolog.Nop())
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestJoin_InvalidRoomID(t *testing.T) {
	m := newTestManager(newFakeClock())
	if _, err := m.Join("bad room!"); err != types.ErrInvalidRoomID {
		t.Errorf("expected ErrInvalidRoomID, got %v", err)
	}
}

func TestJoin_SameRoomIsNoOp(t *testing.T) {
	m := newTestManager(newFakeClock())

	switched, err := m.Join("r1")
	if err != nil || !switched {
		t.Fatalf("first join: switched=%v err=%v", switched, err)
	}

	m.SetTyping("r1", "userX", true)

	switched, err = m.Join("r1")
	if err != nil || switched {
		t.Fatalf("rejoin: switched=%v err=%v", switched, err)
	}
	if len(m.TypingUsers()) != 1 {
		t.Error("idempotent join must not reset ephemeral state")
	}
}

// Room-switch isolation: the typing set empties immediately on switch even
// though no typing_stop ever arrived.
func TestSwitch_ClearsTypingSet(t *testing.T) {
	m := newTestManager(newFakeClock())
	m.Join("r1")
	m.SetTyping("r1", "userX", true)

	switched, err := m.Join("r2")
	if err != nil || !switched {
		t.Fatalf("switch: switched=%v err=%v", switched, err)
	}
	if got := m.TypingUsers(); len(got) != 0 {
		t.Errorf("typing set should be empty after switch, got %v", got)
	}
	if m.ActiveRoom() != "r2" {
		t.Errorf("active room should be r2, got %s", m.ActiveRoom())
	}
}

func TestLeave_ClearsEverything(t *testing.T) {
	m := newTestManager(newFakeClock())
	m.Join("r1")
	m.SetTyping("r1", "userX", true)

	m.Leave()

	if m.ActiveRoom() != "" {
		t.Error("leave should return to the no-room state")
	}
	if len(m.TypingUsers()) != 0 {
		t.Error("leave should clear the typing set")
	}
}

func TestSetTyping_OtherRoomDropped(t *testing.T) {
	m := newTestManager(newFakeClock())
	m.Join("r1")

	m.SetTyping("r2", "userX", true)
	if len(m.TypingUsers()) != 0 {
		t.Error("typing signal for an inactive room must be dropped")
	}

	m.Leave()
	m.SetTyping("r1", "userX", true)
	if len(m.TypingUsers()) != 0 {
		t.Error("typing signal in the no-room state must be dropped")
	}
}

func TestTyping_AutoExpires(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(clock)
	m.Join("r1")

	m.SetTyping("r1", "userX", true)
	m.SetTyping("r1", "userY", true)

	clock.Advance(3 * time.Second)
	if got := sorted(m.TypingUsers()); len(got) != 2 {
		t.Fatalf("expected both still typing, got %v", got)
	}

	// Re-arm userY only; userX ages out at its original deadline.
	m.SetTyping("r1", "userY", true)
	clock.Advance(3 * time.Second)

	got := m.TypingUsers()
	if len(got) != 1 || got[0] != "userY" {
		t.Errorf("expected only userY, got %v", got)
	}

	clock.Advance(5 * time.Second)
	if got := m.TypingUsers(); len(got) != 0 {
		t.Errorf("expected empty set, got %v", got)
	}
}

func TestTyping_StopCancelsTimer(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(clock)
	m.Join("r1")

	m.SetTyping("r1", "userX", true)
	m.SetTyping("r1", "userX", false)

	if len(m.TypingUsers()) != 0 {
		t.Error("explicit stop should remove the user immediately")
	}

	// The cancelled task firing later must not panic or resurrect state.
	clock.Advance(10 * time.Second)
	if len(m.TypingUsers()) != 0 {
		t.Error("typing set should stay empty")
	}
}

func TestTypingExpiry_RaceWithSwitchIsHarmless(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(clock)
	m.Join("r1")
	m.SetTyping("r1", "userX", true)

	// Switch re-arms nothing for r1; a stale expiry for r1 may still fire.
	m.Join("r2")
	m.SetTyping("r2", "userZ", true)
	clock.Advance(6 * time.Second)

	if m.ActiveRoom() != "r2" {
		t.Error("active room changed unexpectedly")
	}
}
