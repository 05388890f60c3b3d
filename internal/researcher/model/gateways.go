package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// CompletionGateway is the boundary to the language-model service. Invoke
// returns the raw completion text; blank content surfaces as an
// EmptyResponseError and transport failures as an InvocationError (see
// internal/core/error).
type CompletionGateway interface {
	Invoke(ctx context.Context, modelID, systemPrompt, userPrompt string) (string, error)

	// InvokeStructured decodes the completion as JSON into out and validates
	// it when out implements Validatable. The returned value is ready to use
	// or the call fails.
	InvokeStructured(ctx context.Context, modelID, systemPrompt, userPrompt string, out any) error
}

// Validatable is implemented by structured-output targets that carry
// constraints beyond JSON well-formedness.
type Validatable interface {
	Validate() error
}

// DocumentRetriever is the boundary to the vector retrieval service. A missing
// or empty collection yields an empty slice, not an error. Document metadata
// is stamped with the request language before return.
type DocumentRetriever interface {
	Search(ctx context.Context, query string, k int, language string) ([]*schema.Document, error)
}

// WebSearcher is the boundary to the web search service. The result is
// display-ready formatted text.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) (string, error)
}

// SessionRepository persists refinement and research sessions between
// externally driven turns.
type SessionRepository interface {
	SaveHitl(ctx context.Context, session *HitlSession) error
	LoadHitl(ctx context.Context, id string) (*HitlSession, error)
	SaveResearch(ctx context.Context, session *ResearchSession) error
	LoadResearch(ctx context.Context, id string) (*ResearchSession, error)
	Delete(ctx context.Context, id string) error
}
