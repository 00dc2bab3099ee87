package realtime

import (
	"context"
	"encoding/json"
	"sync"
)

type Target string

const (
	TargetRoom Target = "room"
	TargetUser Target = "user"
	TargetAll  Target = "all"
	// TargetEvict removes User's sessions from room Key, handing them Payload on the way out.
	TargetEvict Target = "evict"
)

// Envelope is one encoded event addressed to a room, a user, or everyone.
type Envelope struct {
	Target     Target          `json:"target"`
	Key        string          `json:"key,omitempty"`
	ExceptUser string          `json:"exceptUser,omitempty"`
	User       string          `json:"user,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// Broker carries envelopes to every instance's hub, this one included.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(deliver func(Envelope)) error
	Close() error
}

// LocalBroker delivers in process, for single instance deployments and tests.
type LocalBroker struct {
	mu      sync.RWMutex
	deliver func(Envelope)
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

func (b *LocalBroker) Publish(_ context.Context, env Envelope) error {
	b.mu.RLock()
	deliver := b.deliver
	b.mu.RUnlock()
	if deliver != nil {
		deliver(env)
	}
	return nil
}

func (b *LocalBroker) Subscribe(deliver func(Envelope)) error {
	b.mu.Lock()
	b.deliver = deliver
	b.mu.Unlock()
	return nil
}

func (b *LocalBroker) Close() error {
	return nil
}
