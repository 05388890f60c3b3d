package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/deepresearch-core-poc/server/internal/researcher/model"
	logx "github.com/deepresearch-core-poc/server/pkg/logger"
)

// RetrieverConfig holds the vector store and embedding settings.
type RetrieverConfig struct {
	QdrantURL        string `envconfig:"QDRANT_URL" default:"http://localhost:6333"`
	Timeout          int    `envconfig:"QDRANT_TIMEOUT" default:"5"`
	EmbeddingModel   string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	SelectedDatabase string `envconfig:"SELECTED_DATABASE"`
}

// Embedder turns a query into its vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenAIEmbedder computes query embeddings with the Gemini embedding API.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

// NewGenAIEmbedder wraps an existing Gemini client for query embedding.
func NewGenAIEmbedder(client *genai.Client, embeddingModel string) *GenAIEmbedder {
	if embeddingModel == "" {
		embeddingModel = "gemini-embedding-001"
	}
	return &GenAIEmbedder{client: client, model: embeddingModel}
}

// Embed generates the embedding for a single query text.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: "RETRIEVAL_QUERY",
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("embed query: no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

// qdrant search request/response (simplified)
type qdrantQueryRequest struct {
	Query       []float32 `json:"query"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type qdrantQueryResponse struct {
	Result struct {
		Points []qdrantPoint `json:"points"`
	} `json:"result"`
	Status string `json:"status"`
}

type qdrantCollectionsResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}

// QdrantRetriever implements model.DocumentRetriever against a Qdrant
// instance over HTTP. The backing collection is either the explicitly
// selected database or, as a fallback, the first collection whose name
// contains the sanitized embedding-model identifier.
type QdrantRetriever struct {
	cfg      RetrieverConfig
	http     *http.Client
	base     string
	embedder Embedder

	mu         sync.Mutex
	collection string
	resolved   bool
}

// NewQdrantRetriever builds the retriever with its own HTTP client.
func NewQdrantRetriever(cfg RetrieverConfig, embedder Embedder) *QdrantRetriever {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5
	}
	return &QdrantRetriever{
		cfg:      cfg,
		http:     &http.Client{Timeout: time.Duration(timeout) * time.Second},
		base:     strings.TrimRight(cfg.QdrantURL, "/"),
		embedder: embedder,
	}
}

// SanitizeModelName converts an embedding model identifier into the form used
// in collection names ("org/model" becomes "org--model").
func SanitizeModelName(name string) string {
	return strings.ReplaceAll(name, "/", "--")
}

// resolveCollection picks the backing collection once and caches the result.
// An empty return means no collection is available, which callers treat as an
// empty knowledge base rather than an error.
func (r *QdrantRetriever) resolveCollection(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return r.collection, nil
	}
	if r.cfg.SelectedDatabase != "" {
		r.collection = r.cfg.SelectedDatabase
		r.resolved = true
		logx.Debug().Str("collection", r.collection).Msg("Using selected database")
		return r.collection, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+"/collections", nil)
	if err != nil {
		return "", err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("list collections: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("list collections: status %d", resp.StatusCode)
	}

	var cols qdrantCollectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cols); err != nil {
		return "", fmt.Errorf("decode collections: %w", err)
	}

	sanitized := SanitizeModelName(r.cfg.EmbeddingModel)
	for _, c := range cols.Result.Collections {
		if strings.Contains(c.Name, sanitized) {
			r.collection = c.Name
			r.resolved = true
			logx.Debug().Str("collection", c.Name).Str("embedding_model", r.cfg.EmbeddingModel).
				Msg("Matched collection by embedding model")
			return r.collection, nil
		}
	}

	// no matching collection: remember the miss, treat as empty knowledge base
	r.resolved = true
	logx.Warn().Str("embedding_model", r.cfg.EmbeddingModel).Msg("No matching collection found")
	return "", nil
}

// Search embeds the query and runs a top-k nearest neighbor search. A missing
// collection yields an empty result, not an error. Every returned document is
// stamped with the request language.
func (r *QdrantRetriever) Search(ctx context.Context, query string, k int, language string) ([]*schema.Document, error) {
	collection, err := r.resolveCollection(ctx)
	if err != nil {
		return nil, err
	}
	if collection == "" {
		return []*schema.Document{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(qdrantQueryRequest{Query: vec, Limit: k, WithPayload: true})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/collections/%s/points/query", r.base, collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// collection vanished or was never created: empty, not an error
		logx.Warn().Str("collection", collection).Msg("Collection not found, returning no documents")
		return []*schema.Document{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qdrant query: status %d", resp.StatusCode)
	}

	var qr qdrantQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode qdrant response: %w", err)
	}

	docs := make([]*schema.Document, 0, len(qr.Result.Points))
	for _, p := range qr.Result.Points {
		docs = append(docs, pointToDocument(p, language))
	}

	logx.Debug().Str("query", query).Int("count", len(docs)).Msg("Retrieved documents")
	return docs, nil
}

// pointToDocument maps a Qdrant payload onto the shared document type and
// stamps the request language onto its metadata.
func pointToDocument(p qdrantPoint, language string) *schema.Document {
	meta := make(map[string]any, len(p.Payload)+2)
	var content string
	for key, val := range p.Payload {
		if key == "content" || key == "page_content" {
			if s, ok := val.(string); ok {
				content = s
			}
			continue
		}
		meta[key] = val
	}
	meta["language"] = language
	meta["score"] = p.Score

	return &schema.Document{
		ID:       fmt.Sprint(p.ID),
		Content:  content,
		MetaData: meta,
	}
}

var _ model.DocumentRetriever = (*QdrantRetriever)(nil)
