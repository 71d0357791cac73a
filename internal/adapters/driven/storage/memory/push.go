package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
)

// Ensure StatusPush implements the interface.
var _ driven.StatusPush = (*StatusPush)(nil)

// ErrPushUnavailable is returned by Subscribe while the push channel is down.
var ErrPushUnavailable = errors.New("push channel unavailable")

// StatusPush is an in-memory push channel for testing.
type StatusPush struct {
	mu          sync.Mutex
	subscribers map[int64][]chan domain.StatusEvent
	down        bool
}

// NewStatusPush creates an in-memory push channel.
func NewStatusPush() *StatusPush {
	return &StatusPush{subscribers: make(map[int64][]chan domain.StatusEvent)}
}

// SetDown makes new subscriptions fail while down is true.
func (p *StatusPush) SetDown(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

// Subscribe registers a listener for documentID.
func (p *StatusPush) Subscribe(ctx context.Context, documentID int64) (<-chan domain.StatusEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.down {
		return nil, ErrPushUnavailable
	}

	ch := make(chan domain.StatusEvent, 16)
	p.subscribers[documentID] = append(p.subscribers[documentID], ch)

	go func() {
		<-ctx.Done()
		p.drop(documentID, ch)
	}()

	return ch, nil
}

// Subscribers returns the number of open connections for documentID.
func (p *StatusPush) Subscribers(documentID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers[documentID])
}

// Send delivers a status update to every listener of documentID.
func (p *StatusPush) Send(documentID int64, status domain.DocumentStatus, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ev := domain.StatusEvent{DocumentID: documentID, Status: status, Message: message}
	for _, ch := range p.subscribers[documentID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Disconnect closes every connection for documentID, as a dropped socket would.
func (p *StatusPush) Disconnect(documentID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.subscribers[documentID] {
		close(ch)
	}
	delete(p.subscribers, documentID)
}

func (p *StatusPush) drop(documentID int64, ch chan domain.StatusEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.subscribers[documentID]
	for i, c := range subs {
		if c == ch {
			p.subscribers[documentID] = append(subs[:i], subs[i+1:]...)
			if len(p.subscribers[documentID]) == 0 {
				delete(p.subscribers, documentID)
			}
			close(ch)
			return
		}
	}
}
