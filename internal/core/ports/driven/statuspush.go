package driven

import (
	"context"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// StatusPush opens the server's push channel for one document.
type StatusPush interface {
	// Subscribe connects to the document's push channel.
	// Events carry DocumentID, Status, Message and IndexPath; the caller
	// stamps Origin and Seq. The channel is closed when ctx is cancelled
	// or the connection drops. Connection failures are returned as errors;
	// later read failures only close the channel.
	Subscribe(ctx context.Context, documentID int64) (<-chan domain.StatusEvent, error)
}
