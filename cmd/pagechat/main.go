// Command pagechat talks to a PageIndex backend: upload PDFs, watch them
// index, and chat with them from the shell, a terminal UI, or an MCP client.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/pagechat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pagechat/internal/adapters/driven/filewatcher"
	"github.com/custodia-labs/pagechat/internal/adapters/driven/pageindex"
	"github.com/custodia-labs/pagechat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/cli"
	"github.com/custodia-labs/pagechat/internal/cache"
	"github.com/custodia-labs/pagechat/internal/core/services"
	"github.com/custodia-labs/pagechat/internal/logger"
)

// Set via -ldflags "-X main.version=...".
var version = "dev"

// watchSettle is how long a dropped file must stay quiet before upload.
const watchSettle = 500 * time.Millisecond

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetFactory(buildServices)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// buildServices wires the driven adapters into the core services.
func buildServices(_ context.Context, opts cli.Options) (*cli.Services, error) {
	logger.SetVerbose(opts.Verbose)

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if opts.APIURL != "" {
		settings.APIURL = opts.APIURL
		if os.Getenv("PAGECHAT_WS_URL") == "" {
			settings.WSURL = ""
		}
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logger.Section("Wiring")
	logger.Debug("api=%s ws=%s timeout=%s poll=%s", settings.APIURL, settings.ResolvedWSURL(),
		settings.Timeout(), settings.PollInterval())

	client := pageindex.NewClient(settings.APIURL, settings.Timeout(),
		pageindex.WithRequestsPerSecond(settings.RequestsPerSecond))
	push := pageindex.NewPush(settings.ResolvedWSURL(), settings.KeepAlive())

	store := cache.New(client)
	channel := services.NewStatusChannel(client, push, settings.PollInterval())
	lifecycle := services.NewLifecycleController(store, channel)
	watcher := filewatcher.NewFSNotifyWatcher(watchSettle, ".pdf")

	documents := services.NewDocumentService(client, store, lifecycle, watcher)
	chats := services.NewChatService(client, store, settings.Timeout())

	db, err := sqlite.NewStore("")
	if err != nil {
		lifecycle.Close()
		store.Close()
		return nil, fmt.Errorf("open session store: %w", err)
	}
	selection := services.NewSelectionService(documents, chats, store, db.SessionStore(), settings.ReuseLatestChat)
	health := services.NewHealthService(client, settings.APIURL)

	return &cli.Services{
		Documents: documents,
		Chats:     chats,
		Selection: selection,
		Settings:  settingsService,
		Health:    health,
		Changes:   store,
		Close: func() {
			lifecycle.Close()
			store.Close()
			if err := db.Close(); err != nil {
				logger.Warn("closing session store: %v", err)
			}
		},
	}, nil
}
