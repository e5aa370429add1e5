// Package session tracks the single active room and its ephemeral state:
// the typing-indicator set and nothing else. Everything here resets on room
// switch; none of it survives a reload.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ForeFoldAi/eye-care-sub001/pkg/interfaces"
	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// Manager owns the no-room/active-room state machine. At most one room is
// active at a time; joining a new room is a hard reset of ephemeral state.
// Typing indicators expire on a cancellable scheduled task per user so a
// missing typing_stop cannot leave an indicator stuck.
type Manager struct {
	clock interfaces.Clock
	ttl   time.Duration
	log   zerolog.Logger

	mu         sync.Mutex
	activeRoom string
	typing     map[string]interfaces.Timer
}

// NewManager creates a session manager in the no-room state.
func NewManager(clock interfaces.Clock, typingTTL time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		clock:  clock,
		ttl:    typingTTL,
		log:    logger.With().Str("component", "session").Logger(),
		typing: make(map[string]interfaces.Timer),
	}
}

// Join makes roomID the active room. Joining the already-active room is a
// no-op and reports switched=false; callers skip the reset and the fresh
// pull in that case. Any other join clears the typing set before returning.
func (m *Manager) Join(roomID string) (switched bool, err error) {
	if !types.IsValidID(roomID) {
		return false, types.ErrInvalidRoomID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeRoom == roomID {
		return false, nil
	}

	m.clearTypingLocked()
	m.activeRoom = roomID
	m.log.Debug().Str("room", roomID).Msg("active room switched")
	return true, nil
}

// Leave returns to the no-room state, clearing all ephemeral state.
func (m *Manager) Leave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearTypingLocked()
	m.activeRoom = ""
}

// ActiveRoom returns the active room id, empty in the no-room state.
func (m *Manager) ActiveRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeRoom
}

// SetTyping records a typing signal for the active room. Signals for any
// other room are dropped. A start (re)arms the user's expiry task; a stop
// cancels it and removes the user.
func (m *Manager) SetTyping(roomID, userID string, typing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeRoom == "" || roomID != m.activeRoom {
		return
	}

	if timer, ok := m.typing[userID]; ok {
		timer.Stop()
		delete(m.typing, userID)
	}
	if !typing {
		return
	}

	m.typing[userID] = m.clock.AfterFunc(m.ttl, func() {
		m.expireTyping(roomID, userID)
	})
}

// TypingUsers returns the users currently typing in the active room.
func (m *Manager) TypingUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]string, 0, len(m.typing))
	for userID := range m.typing {
		users = append(users, userID)
	}
	return users
}

// expireTyping removes a user whose indicator aged out. The room check
// guards against a fire racing a room switch.
func (m *Manager) expireTyping(roomID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeRoom != roomID {
		return
	}
	delete(m.typing, userID)
}

// clearTypingLocked cancels every expiry task and empties the set. Caller
// holds the lock.
func (m *Manager) clearTypingLocked() {
	for userID, timer := range m.typing {
		timer.Stop()
		delete(m.typing, userID)
	}
}
