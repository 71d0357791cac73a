package pageindex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

func TestTimestamp_Layouts(t *testing.T) {
	want := time.Date(2024, 3, 5, 14, 7, 9, 123456000, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"rfc3339", `"2024-03-05T14:07:09.123456Z"`},
		{"offset", `"2024-03-05T14:07:09.123456+00:00"`},
		{"naive", `"2024-03-05T14:07:09.123456"`},
		{"space separated", `"2024-03-05 14:07:09.123456"`},
		{"space with offset", `"2024-03-05 14:07:09.123456+00:00"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.True(t, want.Equal(ts.Time()), "got %s", ts.Time())
		})
	}

	var ts timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.Time().IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestDecodeSources(t *testing.T) {
	intro := domain.Source{Title: "Intro", NodeID: "0001", Pages: "1-2"}

	tests := []struct {
		name    string
		raw     string
		want    []domain.Source
		wantErr bool
	}{
		{name: "null", raw: `null`},
		{name: "missing", raw: ``},
		{name: "empty array", raw: `[]`},
		{name: "array", raw: `[{"title":"Intro","node_id":"0001","pages":"1-2"}]`, want: []domain.Source{intro}},
		{name: "wrapped", raw: `{"sources":[{"title":"Intro","node_id":"0001","pages":"1-2"}]}`, want: []domain.Source{intro}},
		{name: "numeric pages", raw: `[{"title":"Intro","node_id":"0001","pages":3}]`, want: []domain.Source{{Title: "Intro", NodeID: "0001", Pages: "3"}}},
		{name: "string", raw: `"oops"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeSources(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDetail(t *testing.T) {
	assert.Equal(t, "Chat not found", parseDetail([]byte(`{"detail":"Chat not found"}`)))
	assert.Equal(t, "file: field required; query: too short",
		parseDetail([]byte(`{"detail":[{"loc":["body","file"],"msg":"field required"},{"loc":["body","query"],"msg":"too short"}]}`)))
	assert.Equal(t, "Internal Server Error", parseDetail([]byte("Internal Server Error")))
}

func TestDocumentDTO_ToDomain(t *testing.T) {
	var dto documentDTO
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 7,
		"filename": "a.pdf",
		"status": "READY",
		"created_at": "2024-03-05T14:07:09",
		"index_path": "/data/indexes/7.json",
		"error_message": null
	}`), &dto))

	doc, err := dto.toDomain()
	require.NoError(t, err)
	assert.Equal(t, int64(7), doc.ID)
	assert.Equal(t, domain.StatusReady, doc.Status)
	require.NotNil(t, doc.IndexPath)
	assert.Equal(t, "/data/indexes/7.json", *doc.IndexPath)
	assert.Empty(t, doc.ErrorMessage)
}

func TestStatusDecoding_RejectsUnknownValues(t *testing.T) {
	doc := documentDTO{ID: 3, Filename: "a.pdf", Status: "archived"}
	_, err := doc.toDomain()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	report := statusDTO{ID: 3, Status: ""}
	_, err = report.toDomain()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	report.Status = " Indexing "
	got, err := report.toDomain()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexing, got.Status)
}
