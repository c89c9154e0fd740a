package queue

import (
	"context"
	"sync"
)

// Publisher hands a message to the queue transport. Implementations must
// not return until delivery is confirmed or ctx is done; a timeout is a
// transient failure the caller may retry.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte) error
}

// Memory is an in-process queue used by tests and local end-to-end runs.
type Memory struct {
	mu     sync.Mutex
	topics map[string][][]byte
}

// NewMemory creates an empty in-process queue.
func NewMemory() *Memory {
	return &Memory{topics: map[string][][]byte{}}
}

// Publish implements [Publisher].
func (m *Memory) Publish(ctx context.Context, topic string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	msg := make([]byte, len(data))
	copy(msg, data)
	m.topics[topic] = append(m.topics[topic], msg)
	return nil
}

// Pop removes and returns the oldest message on a topic, or false when the
// topic is empty.
func (m *Memory) Pop(topic string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := m.topics[topic]
	if len(msgs) == 0 {
		return nil, false
	}
	msg := msgs[0]
	m.topics[topic] = msgs[1:]
	return msg, true
}

// Len returns how many messages are waiting on a topic.
func (m *Memory) Len(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.topics[topic])
}
