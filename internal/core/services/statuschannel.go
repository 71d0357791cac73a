package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/logger"
)

// StatusSource produces status events for one document.
type StatusSource interface {
	Open(ctx context.Context, documentID int64) <-chan domain.StatusEvent
}

// Ensure StatusChannel implements the interface.
var _ StatusSource = (*StatusChannel)(nil)

// StatusChannel merges the polled status endpoint and the push channel
// into one event stream per document.
type StatusChannel struct {
	backend  driven.DocumentBackend
	push     driven.StatusPush
	interval time.Duration

	// seq is shared by both sources so events can be ordered by when
	// their read was issued.
	seq atomic.Uint64
}

// NewStatusChannel creates a status channel. push may be nil, in which
// case status is polled only.
func NewStatusChannel(backend driven.DocumentBackend, push driven.StatusPush, interval time.Duration) *StatusChannel {
	if interval <= 0 {
		interval = time.Duration(domain.DefaultPollIntervalMS) * time.Millisecond
	}
	return &StatusChannel{
		backend:  backend,
		push:     push,
		interval: interval,
	}
}

// Open starts polling and listening for documentID. Events from both
// sources are forwarded in receipt order. The channel is closed once ctx
// is cancelled and both sources have stopped.
func (c *StatusChannel) Open(ctx context.Context, documentID int64) <-chan domain.StatusEvent {
	out := make(chan domain.StatusEvent, 16)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.poll(ctx, documentID, out)
	}()

	if c.push != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.listen(ctx, documentID, out)
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func (c *StatusChannel) poll(ctx context.Context, documentID int64, out chan<- domain.StatusEvent) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.pollOnce(ctx, documentID, out)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *StatusChannel) pollOnce(ctx context.Context, documentID int64, out chan<- domain.StatusEvent) {
	if ctx.Err() != nil {
		return
	}
	// Stamp before the request leaves so a slow response sorts before any
	// push event received while it was in flight.
	seq := c.seq.Add(1)

	report, err := c.backend.GetDocumentStatus(ctx, documentID)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("status poll for document %d failed: %v", documentID, err)
		}
		return
	}

	emit(ctx, out, domain.StatusEvent{
		DocumentID: documentID,
		Status:     report.Status,
		Message:    report.ErrorMessage,
		Origin:     domain.OriginPoll,
		Seq:        seq,
	})
}

func (c *StatusChannel) listen(ctx context.Context, documentID int64, out chan<- domain.StatusEvent) {
	events, err := c.push.Subscribe(ctx, documentID)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("push channel for document %d unavailable: %v", documentID, err)
		}
		return
	}

	for ev := range events {
		ev.DocumentID = documentID
		ev.Origin = domain.OriginPush
		ev.Seq = c.seq.Add(1)
		emit(ctx, out, ev)
	}

	if ctx.Err() == nil {
		logger.Debug("push channel for document %d closed, polling continues", documentID)
	}
}

func emit(ctx context.Context, out chan<- domain.StatusEvent, ev domain.StatusEvent) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}
