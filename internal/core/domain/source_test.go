package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSource_Label(t *testing.T) {
	tests := []struct {
		name   string
		source Source
		want   string
	}{
		{"title and pages", Source{Title: "Methods", NodeID: "0004", Pages: "3-5"}, "Methods (p. 3-5)"},
		{"title only", Source{Title: "Methods", NodeID: "0004"}, "Methods"},
		{"node fallback", Source{NodeID: "0004", Pages: "7"}, "0004 (p. 7)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.source.Label())
		})
	}
}
