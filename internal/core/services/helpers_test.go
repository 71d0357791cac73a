package services

import (
	"testing"
	"time"

	"github.com/custodia-labs/pagechat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pagechat/internal/cache"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
)

// pdfBytes is the smallest content that sniffs as application/pdf.
var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type testEnv struct {
	backend   *memory.Backend
	push      *memory.StatusPush
	sessions  *memory.SessionStore
	cache     *cache.Store
	channel   *StatusChannel
	lifecycle *LifecycleController
	documents *DocumentService
	chats     *ChatService
	selection *SelectionService
}

type envOption func(*envConfig)

type envConfig struct {
	pollInterval time.Duration
	queryTimeout time.Duration
	reuseLatest  bool
	watcher      *fakeWatcher
}

func withPollInterval(d time.Duration) envOption {
	return func(c *envConfig) { c.pollInterval = d }
}

func withQueryTimeout(d time.Duration) envOption {
	return func(c *envConfig) { c.queryTimeout = d }
}

func withReuseLatest(v bool) envOption {
	return func(c *envConfig) { c.reuseLatest = v }
}

func withWatcher(w *fakeWatcher) envOption {
	return func(c *envConfig) { c.watcher = w }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{
		pollInterval: 10 * time.Millisecond,
		queryTimeout: time.Second,
		reuseLatest:  true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	env := &testEnv{
		backend:  memory.NewBackend(),
		push:     memory.NewStatusPush(),
		sessions: memory.NewSessionStore(),
	}
	env.cache = cache.New(env.backend)
	env.channel = NewStatusChannel(env.backend, env.push, cfg.pollInterval)
	env.lifecycle = NewLifecycleController(env.cache, env.channel)

	var watcher driven.DirectoryWatcher
	if cfg.watcher != nil {
		watcher = cfg.watcher
	}
	env.documents = NewDocumentService(env.backend, env.cache, env.lifecycle, watcher)
	env.chats = NewChatService(env.backend, env.cache, cfg.queryTimeout)
	env.selection = NewSelectionService(env.documents, env.chats, env.cache, env.sessions, cfg.reuseLatest)

	t.Cleanup(func() {
		env.lifecycle.Close()
		env.cache.Close()
	})
	return env
}
