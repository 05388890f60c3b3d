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

type stubEmbedder struct {
	vector []float32
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return s.vector, nil
}

func TestQdrantSearchMapsPoints(t *testing.T) {
	var gotReq qdrantQueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/research-db/points/query", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"result": {"points": [
			{"id": 7, "score": 0.91, "payload": {"page_content": "entangled states", "source": "physics.pdf", "path": "/files/physics.pdf"}}
		]}, "status": "ok"}`))
	}))
	defer srv.Close()

	r := NewQdrantRetriever(RetrieverConfig{
		QdrantURL:        srv.URL,
		SelectedDatabase: "research-db",
	}, &stubEmbedder{vector: []float32{0.1, 0.2}})

	docs, err := r.Search(context.Background(), "entanglement", 3, "English")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, gotReq.Query)
	assert.Equal(t, 3, gotReq.Limit)
	assert.True(t, gotReq.WithPayload)
	require.Len(t, docs, 1)
	assert.Equal(t, "7", docs[0].ID)
	assert.Equal(t, "entangled states", docs[0].Content)
	assert.Equal(t, "physics.pdf", docs[0].MetaData["source"])
	assert.Equal(t, "English", docs[0].MetaData["language"])
	assert.Equal(t, 0.91, docs[0].MetaData["score"])
}

func TestQdrantSearchMissingCollectionIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewQdrantRetriever(RetrieverConfig{
		QdrantURL:        srv.URL,
		SelectedDatabase: "gone",
	}, &stubEmbedder{vector: []float32{0.5}})

	docs, err := r.Search(context.Background(), "anything", 3, "English")

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQdrantResolvesCollectionByEmbeddingModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections":
			_, _ = w.Write([]byte(`{"result": {"collections": [
				{"name": "other-db"},
				{"name": "kb_models--embed-v2_main"}
			]}}`))
		case "/collections/kb_models--embed-v2_main/points/query":
			_, _ = w.Write([]byte(`{"result": {"points": []}, "status": "ok"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	r := NewQdrantRetriever(RetrieverConfig{
		QdrantURL:      srv.URL,
		EmbeddingModel: "models/embed-v2",
	}, &stubEmbedder{vector: []float32{0.5}})

	docs, err := r.Search(context.Background(), "anything", 3, "English")

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQdrantNoMatchingCollectionIsEmptyKnowledgeBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections", r.URL.Path, "no query may be issued without a collection")
		_, _ = w.Write([]byte(`{"result": {"collections": [{"name": "unrelated"}]}}`))
	}))
	defer srv.Close()

	r := NewQdrantRetriever(RetrieverConfig{
		QdrantURL:      srv.URL,
		EmbeddingModel: "embed-v9",
	}, &stubEmbedder{vector: []float32{0.5}})

	docs, err := r.Search(context.Background(), "anything", 3, "English")

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSanitizeModelName(t *testing.T) {
	assert.Equal(t, "models--embed-v2", SanitizeModelName("models/embed-v2"))
	assert.Equal(t, "plain", SanitizeModelName("plain"))
}
