package services

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/logger"
	"github.com/custodia-labs/pagechat/internal/pubsub"
)

// LifecycleController follows the indexing status of documents and writes
// every accepted transition into the cache. A document is followed from
// Track until it reaches a terminal status or is untracked.
type LifecycleController struct {
	cache  driven.EntityCache
	source StatusSource
	broker *pubsub.Broker[domain.StatusEvent]

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	tracked map[int64]*tracker
	lastSeq map[int64]uint64
}

type tracker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLifecycleController creates a controller writing into cache.
func NewLifecycleController(cache driven.EntityCache, source StatusSource) *LifecycleController {
	base, cancel := context.WithCancel(context.Background())
	return &LifecycleController{
		cache:   cache,
		source:  source,
		broker:  pubsub.NewBroker[domain.StatusEvent](),
		base:    base,
		cancel:  cancel,
		tracked: make(map[int64]*tracker),
		lastSeq: make(map[int64]uint64),
	}
}

// Track starts following a cached, non-terminal document. It returns
// false when the document is unknown or already terminal. Tracking an
// already tracked document is a no-op.
func (c *LifecycleController) Track(documentID int64) bool {
	doc, ok := c.cache.Document(documentID)
	if !ok || doc.Status.IsTerminal() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.base.Err() != nil {
		return false
	}
	if _, ok := c.tracked[documentID]; ok {
		return true
	}

	ctx, cancel := context.WithCancel(c.base)
	t := &tracker{cancel: cancel, done: make(chan struct{})}
	c.tracked[documentID] = t

	logger.Debug("lifecycle: tracking document %d (%s)", documentID, doc.Status)

	c.wg.Add(1)
	go c.run(ctx, documentID, t)

	return true
}

func (c *LifecycleController) run(ctx context.Context, documentID int64, t *tracker) {
	defer c.wg.Done()
	defer close(t.done)
	defer func() {
		c.mu.Lock()
		if c.tracked[documentID] == t {
			delete(c.tracked, documentID)
		}
		c.mu.Unlock()
		t.cancel()
	}()

	for ev := range c.source.Open(ctx, documentID) {
		c.Apply(ev)
		// The cache can also turn terminal through a list refetch, so check
		// what is cached rather than what was just applied.
		doc, ok := c.cache.Document(documentID)
		if !ok || doc.Status.IsTerminal() {
			logger.Debug("lifecycle: document %d is %s, stopping", documentID, doc.Status)
			t.cancel()
		}
	}
}

// Apply writes one status event through to the cache. The event is
// dropped when the document is not cached, its cached status is terminal,
// the read is older than the last applied one, or the status would not
// move the document forward. Returns true if the cache was written.
func (c *LifecycleController) Apply(ev domain.StatusEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.lastSeq[ev.DocumentID]; ok && ev.Seq < last {
		logger.Debug("lifecycle: dropping stale %s read for document %d (seq %d < %d)",
			ev.Origin, ev.DocumentID, ev.Seq, last)
		return false
	}

	written := c.cache.UpdateDocument(ev.DocumentID, func(doc *domain.Document) bool {
		if !doc.Status.CanTransitionTo(ev.Status) {
			return false
		}
		doc.Status = ev.Status
		if ev.Status == domain.StatusError {
			doc.ErrorMessage = ev.Message
		}
		if ev.IndexPath != "" {
			path := ev.IndexPath
			doc.IndexPath = &path
		}
		return true
	})
	if !written {
		return false
	}

	c.lastSeq[ev.DocumentID] = ev.Seq
	logger.Debug("lifecycle: document %d -> %s via %s", ev.DocumentID, ev.Status, ev.Origin)
	c.broker.Publish(ev)
	return true
}

// Untrack stops following a document and returns once its poll and push
// readers have exited. It is safe to call for documents that are not
// tracked.
func (c *LifecycleController) Untrack(documentID int64) {
	c.mu.Lock()
	t, ok := c.tracked[documentID]
	delete(c.tracked, documentID)
	c.mu.Unlock()

	if ok {
		logger.Debug("lifecycle: untracking document %d", documentID)
		t.cancel()
		<-t.done
	}
}

// Forget untracks a deleted document and drops its ordering state.
func (c *LifecycleController) Forget(documentID int64) {
	c.Untrack(documentID)

	c.mu.Lock()
	delete(c.lastSeq, documentID)
	c.mu.Unlock()
}

// TrackAll reconciles tracking with a freshly loaded document list:
// documents that disappeared are forgotten, terminal ones are untracked
// and non-terminal ones are tracked.
func (c *LifecycleController) TrackAll(docs []domain.Document) {
	listed := make(map[int64]domain.DocumentStatus, len(docs))
	for _, d := range docs {
		listed[d.ID] = d.Status
	}

	for _, id := range c.Tracked() {
		status, ok := listed[id]
		switch {
		case !ok:
			c.Forget(id)
		case status.IsTerminal():
			c.Untrack(id)
		}
	}

	for _, d := range docs {
		if !d.Status.IsTerminal() {
			c.Track(d.ID)
		}
	}
}

// IsTracking reports whether a document is being followed.
func (c *LifecycleController) IsTracking(documentID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tracked[documentID]
	return ok
}

// Tracked returns the IDs of followed documents in ascending order.
func (c *LifecycleController) Tracked() []int64 {
	c.mu.Lock()
	ids := make([]int64, 0, len(c.tracked))
	for id := range c.tracked {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Subscribe returns every applied status event until ctx ends.
func (c *LifecycleController) Subscribe(ctx context.Context) <-chan domain.StatusEvent {
	return c.broker.Subscribe(ctx)
}

// Close stops following every document and waits for the followers to exit.
func (c *LifecycleController) Close() {
	c.cancel()
	c.wg.Wait()
	c.broker.Close()
}
