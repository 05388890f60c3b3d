package gateways

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearchFormatsResults(t *testing.T) {
	var gotBody tavilySearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"title": "Quantum Basics", "url": "https://example.com/q", "content": "entangled pairs"},
			{"title": "", "url": "", "content": "untitled result"}
		]}`))
	}))
	defer srv.Close()

	c := NewTavilyClient(TavilyConfig{APIKey: "key", BaseURL: srv.URL})
	got, err := c.Search(context.Background(), "quantum entanglement", 3)

	require.NoError(t, err)
	assert.Equal(t, "quantum entanglement", gotBody.Query)
	assert.Equal(t, 3, gotBody.MaxResults)
	assert.True(t, gotBody.IncludeRawContent)
	assert.Contains(t, got, "Source 1: Quantum Basics\nURL: https://example.com/q\nContent: entangled pairs\n\n")
	assert.Contains(t, got, "Source 2: Unknown Title\nURL: Unknown URL\nContent: untitled result\n\n")
}

func TestTavilySearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c := NewTavilyClient(TavilyConfig{APIKey: "key", BaseURL: srv.URL})
	got, err := c.Search(context.Background(), "nothing", 3)

	require.NoError(t, err)
	assert.Equal(t, "No results found.", got)
}

func TestTavilySearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewTavilyClient(TavilyConfig{APIKey: "key", BaseURL: srv.URL})
	_, err := c.Search(context.Background(), "query", 3)
	assert.Error(t, err)

	c = NewTavilyClient(TavilyConfig{BaseURL: srv.URL})
	_, err = c.Search(context.Background(), "query", 3)
	assert.Error(t, err, "missing api key is an error")
}
