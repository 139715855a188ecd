package notify

import (
	"context"
	"sync"

	"github.com/kuitang/leasekeeper/internal/obs"
)

// MockNotifier captures messages instead of sending them.
type MockNotifier struct {
	mu       sync.Mutex
	Messages []Message
}

// NewMockNotifier creates an empty mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Messages: make([]Message, 0)}
}

// Notify records msg and logs it for manual inspection.
func (m *MockNotifier) Notify(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)

	obs.From(ctx).Info("notification captured", "pkg", "notify", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Last returns the most recent message, or the zero value.
func (m *MockNotifier) Last() Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		return Message{}
	}
	return m.Messages[len(m.Messages)-1]
}

// Count returns the number of captured messages.
func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}
