package notify

import (
	"context"
	"sync"
)

// MemoryMailer records sends instead of dispatching them. Test double; can
// be primed to fail so callers' no-flag-on-failure behavior is observable.
type MemoryMailer struct {
	mu   sync.Mutex
	sent []Email
	fail error
}

// NewMemoryMailer creates an empty recording mailer.
func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

// FailWith makes every subsequent Send return err (nil restores success).
func (m *MemoryMailer) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Send implements [Mailer].
func (m *MemoryMailer) Send(ctx context.Context, msg Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns every successfully recorded email.
func (m *MemoryMailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Email, len(m.sent))
	copy(out, m.sent)
	return out
}
