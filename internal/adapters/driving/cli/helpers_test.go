package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagechat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pagechat/internal/cache"
	"github.com/custodia-labs/pagechat/internal/core/services"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// testEnv is a full set of services over the in-memory backend.
type testEnv struct {
	backend *memory.Backend
	store   *cache.Store
	config  *memory.ConfigStore
}

// setupTestServices injects memory-backed services for the duration of t.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	backend := memory.NewBackend()
	store := cache.New(backend)
	channel := services.NewStatusChannel(backend, nil, 10*time.Millisecond)
	lifecycle := services.NewLifecycleController(store, channel)

	docs := services.NewDocumentService(backend, store, lifecycle, nil)
	chats := services.NewChatService(backend, store, time.Second)
	config := memory.NewConfigStore()

	SetFactory(nil)
	SetServices(&Services{
		Documents: docs,
		Chats:     chats,
		Selection: services.NewSelectionService(docs, chats, store, memory.NewSessionStore(), true),
		Settings:  services.NewSettingsService(config),
		Health:    services.NewHealthService(backend, "http://pageindex.test"),
		Changes:   store,
	})
	t.Cleanup(func() {
		SetServices(nil)
		lifecycle.Close()
		store.Close()
	})

	return &testEnv{backend: backend, store: store, config: config}
}

// execute runs the command tree with args and returns everything written
// to stdout and stderr.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag in the tree to its default, since cobra
// keeps parsed values on the package-level commands between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// stubTerminal makes confirmation prompts answerable.
func stubTerminal(t *testing.T, isTerminal bool) {
	t.Helper()
	orig := stdinIsTerminal
	stdinIsTerminal = func() bool { return isTerminal }
	t.Cleanup(func() { stdinIsTerminal = orig })
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
