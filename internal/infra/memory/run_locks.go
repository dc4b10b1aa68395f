package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// RunLocks is an in-process registry of users with a quiz run in progress.
type RunLocks struct {
	mu    sync.Mutex
	holds map[string]string
}

func NewRunLocks() *RunLocks {
	return &RunLocks{holds: make(map[string]string)}
}

// Acquire claims the user's run slot. ok is false when another run holds it.
func (l *RunLocks) Acquire(_ context.Context, userID string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.holds[userID]; held {
		return "", false, nil
	}
	token := uuid.NewString()
	l.holds[userID] = token
	return token, true, nil
}

// Refresh is a no-op: in-process holds do not expire.
func (l *RunLocks) Refresh(context.Context, string, string) error {
	return nil
}

// Release frees the slot if token still owns it.
func (l *RunLocks) Release(_ context.Context, userID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holds[userID] == token {
		delete(l.holds, userID)
	}
	return nil
}

// Held reports whether a run is registered for userID.
func (l *RunLocks) Held(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.holds[userID]
	return ok
}
