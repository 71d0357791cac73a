package cache

import "github.com/custodia-labs/pagechat/internal/core/domain"

// mergeDocuments takes membership and order from fetched but never lets a
// document's status move backwards. A list response can be older than a
// status event already applied from the push channel.
func mergeDocuments(cached, fetched []domain.Document) []domain.Document {
	known := make(map[int64]domain.Document, len(cached))
	for _, d := range cached {
		known[d.ID] = d
	}

	merged := make([]domain.Document, 0, len(fetched))
	for _, f := range fetched {
		c, ok := known[f.ID]
		if ok && keepCachedStatus(c.Status, f.Status) {
			f.Status = c.Status
			f.ErrorMessage = c.ErrorMessage
			if f.IndexPath == nil {
				f.IndexPath = c.IndexPath
			}
		}
		merged = append(merged, cloneDocument(f))
	}
	return merged
}

func keepCachedStatus(cached, fetched domain.DocumentStatus) bool {
	if cached.IsTerminal() {
		return cached != fetched
	}
	return cached.Rank() > fetched.Rank()
}

func cloneDocument(d domain.Document) domain.Document {
	if d.IndexPath != nil {
		p := *d.IndexPath
		d.IndexPath = &p
	}
	return d
}

func cloneDocuments(docs []domain.Document) []domain.Document {
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		out[i] = cloneDocument(d)
	}
	return out
}
