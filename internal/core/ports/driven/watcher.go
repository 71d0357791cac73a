package driven

import "context"

// DirectoryWatcher reports files that appear in a directory.
type DirectoryWatcher interface {
	// Watch emits the path of each file created or written under dir.
	// The channel is closed when ctx is cancelled.
	Watch(ctx context.Context, dir string) (<-chan string, error)
}
