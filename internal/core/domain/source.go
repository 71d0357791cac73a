package domain

import "fmt"

// Source is a citation attached to an assistant answer. NodeID is an
// opaque pointer into the backend's index structure.
type Source struct {
	Title  string
	NodeID string
	Pages  string
}

// Label renders the citation for display, e.g. "Introduction (p. 1-3)".
func (s Source) Label() string {
	title := s.Title
	if title == "" {
		title = s.NodeID
	}
	if s.Pages == "" {
		return title
	}
	return fmt.Sprintf("%s (p. %s)", title, s.Pages)
}
