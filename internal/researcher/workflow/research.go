package workflow

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	errx "github.com/deepresearch-core-poc/server/internal/core/error"
	"github.com/deepresearch-core-poc/server/internal/researcher/model"
	"github.com/deepresearch-core-poc/server/internal/researcher/parsers"
	"github.com/deepresearch-core-poc/server/internal/researcher/prompts"
	logx "github.com/deepresearch-core-poc/server/pkg/logger"
)

// Stage identifies one step of the research execution workflow.
type Stage string

const (
	StageRetrieve     Stage = "retrieve_documents"
	StageSummarize    Stage = "summarize_query_research"
	StageRerank       Stage = "rerank_summaries"
	StageWebSearch    Stage = "web_search"
	StageGenerate     Stage = "generate_final_answer"
	StageQualityCheck Stage = "quality_check"
	StageLinkSources  Stage = "link_sources"
	StageDone         Stage = "done"
)

// retrievalTopK is the fixed number of documents fetched per research query.
const retrievalTopK = 3

// webSearchMaxResults caps the web search call made with the original query.
const webSearchMaxResults = 3

// qualityContextLimit caps the summary text handed to the quality checker.
const qualityContextLimit = 10000

// maxSteps bounds the driver loop. The longest legal path is the linear stage
// sequence plus two quality retries, well under this cap; hitting it means a
// transition bug.
const maxSteps = 16

// Engine runs a finalized research session to completion. Stages execute
// sequentially on the calling goroutine; each session is exclusively owned by
// the execution that processes it.
type Engine struct {
	llm       model.CompletionGateway
	retriever model.DocumentRetriever
	web       model.WebSearcher
}

func NewEngine(llm model.CompletionGateway, retriever model.DocumentRetriever, web model.WebSearcher) *Engine {
	return &Engine{llm: llm, retriever: retriever, web: web}
}

// Run drives the session from its current stage to StageDone. The session
// records the stage it is in before each transition, so a failed run can be
// reported with the stage that aborted it.
func (e *Engine) Run(ctx context.Context, s *model.ResearchSession) error {
	stage := Stage(s.Stage)
	if stage == "" {
		stage = StageRetrieve
	}

	for steps := 0; stage != StageDone; steps++ {
		if steps >= maxSteps {
			return errx.WrapStage(string(stage), fmt.Errorf("workflow exceeded %d steps", maxSteps))
		}
		s.Stage = string(stage)
		logx.Debug().Str("session_id", s.ID).Str("stage", string(stage)).Msg("Executing stage")

		next, err := e.Transition(ctx, stage, s)
		if err != nil {
			return errx.WrapStage(string(stage), err)
		}
		stage = next
	}

	s.Stage = string(StageDone)
	return nil
}

// Transition executes one stage against the session and returns the next
// stage. It is total over the stage set; an unknown stage is an error.
func (e *Engine) Transition(ctx context.Context, stage Stage, s *model.ResearchSession) (Stage, error) {
	switch stage {
	case StageRetrieve:
		e.retrieveDocuments(ctx, s)
		return StageSummarize, nil

	case StageSummarize:
		if err := e.summarize(ctx, s); err != nil {
			return stage, err
		}
		return StageRerank, nil

	case StageRerank:
		e.rerank(s)
		if WebSearchGate(s.Config.EnableWebSearch) == RouteSearch {
			return StageWebSearch, nil
		}
		return StageGenerate, nil

	case StageWebSearch:
		e.webSearch(ctx, s)
		return StageGenerate, nil

	case StageGenerate:
		if err := e.generateAnswer(ctx, s); err != nil {
			return stage, err
		}
		return StageQualityCheck, nil

	case StageQualityCheck:
		e.qualityCheck(ctx, s)
		if QualityGate(s.QualityCheck, s.ReflectionCount) == RouteRetry {
			return StageGenerate, nil
		}
		return StageLinkSources, nil

	case StageLinkSources:
		e.linkSources(s)
		return StageDone, nil

	case StageDone:
		return StageDone, nil

	default:
		return stage, fmt.Errorf("unknown stage %q", stage)
	}
}

// retrieveDocuments fetches the top documents for every research query, in
// declaration order. A query returning nothing is normal; individual failures
// are logged and recorded as empty rather than aborting the stage.
func (e *Engine) retrieveDocuments(ctx context.Context, s *model.ResearchSession) {
	if s.RetrievedDocs == nil {
		s.RetrievedDocs = make(map[string][]*schema.Document, len(s.ResearchQueries))
	}
	for _, q := range s.ResearchQueries {
		docs, err := e.retriever.Search(ctx, q, retrievalTopK, s.Language())
		if err != nil {
			logx.Warn().Err(err).Str("query", q).Msg("Retrieval failed for query")
			docs = nil
		}
		s.RetrievedDocs[q] = docs
		logx.Debug().Str("query", q).Int("count", len(docs)).Msg("Documents retrieved")
	}
}

// summarize produces one summary document per research query that retrieved
// anything, preserving query order. Queries with zero documents get no
// summary entry. An empty model response is fatal for the stage.
func (e *Engine) summarize(ctx context.Context, s *model.ResearchSession) error {
	if s.SearchSummaries == nil {
		s.SearchSummaries = make(map[string][]*schema.Document, len(s.ResearchQueries))
	}
	for _, q := range s.ResearchQueries {
		docs := s.RetrievedDocs[q]
		if len(docs) == 0 {
			continue
		}

		system, human, err := prompts.RenderSummarizer(ctx, s.Language(), q, s.AdditionalContext, FormatSummarizerContext(docs))
		if err != nil {
			return err
		}
		raw, err := e.llm.Invoke(ctx, s.Config.SummarizationModel, system, human)
		if err != nil {
			return err
		}

		s.SearchSummaries[q] = []*schema.Document{{
			Content: parsers.StripReasoning(raw),
			MetaData: map[string]any{
				"source":             "summary",
				"query":              q,
				"original_doc_count": len(docs),
			},
		}}
		logx.Debug().Str("query", q).Int("source_docs", len(docs)).Msg("Query research summarized")
	}
	return nil
}

// rerank flattens the summaries into an ordered list matching the research
// query order. No scoring is applied; this is the seam for a future scoring
// policy.
func (e *Engine) rerank(s *model.ResearchSession) {
	ranked := make([]model.RankedSummary, 0, len(s.SearchSummaries))
	for _, q := range s.ResearchQueries {
		for _, doc := range s.SearchSummaries[q] {
			ranked = append(ranked, model.RankedSummary{
				Summary: doc.Content,
				Query:   q,
				Source:  doc,
			})
		}
	}
	s.RankedSummaries = ranked
}

// webSearch queries the web with the original user query. Failures are
// reported as result text so the report writer still sees something.
func (e *Engine) webSearch(ctx context.Context, s *model.ResearchSession) {
	result, err := e.web.Search(ctx, s.UserQuery, webSearchMaxResults)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", s.ID).Msg("Web search failed")
		s.InternetResult = fmt.Sprintf("Error performing web search: %v", err)
		return
	}
	s.InternetResult = result
}

// generateAnswer writes the report from the aggregated summaries and web
// result. Re-running replaces the previous answer.
func (e *Engine) generateAnswer(ctx context.Context, s *model.ResearchSession) error {
	system, human, err := prompts.RenderReportWriter(ctx, s.Language(), s.UserQuery,
		AggregateInformation(s), s.Config.ReportStructure)
	if err != nil {
		return err
	}
	answer, err := e.llm.Invoke(ctx, s.Config.ReportModel, system, human)
	if err != nil {
		return err
	}
	s.FinalAnswer = answer
	return nil
}

// qualityCheck assesses the generated report. Disabled checking auto-passes
// without touching the reflection counter. When enabled, every evaluation
// increments the counter, and any gateway or parse failure degrades to the
// conservative fallback verdict instead of failing the stage.
func (e *Engine) qualityCheck(ctx context.Context, s *model.ResearchSession) {
	if !s.Config.EnableQualityChecker {
		s.QualityCheck = model.AutoPassVerdict()
		return
	}

	verdict := e.evaluateQuality(ctx, s)
	if verdict == nil {
		verdict = model.FallbackVerdict()
	}
	s.QualityCheck = verdict
	s.ReflectionCount++
	logx.Info().Str("session_id", s.ID).
		Int("quality_score", verdict.QualityScore).
		Bool("is_accurate", verdict.IsAccurate).
		Int("reflection_count", s.ReflectionCount).
		Msg("Quality check evaluated")
}

// evaluateQuality runs the checker model and extracts its verdict, returning
// nil on any failure.
func (e *Engine) evaluateQuality(ctx context.Context, s *model.ResearchSession) *model.QualityVerdict {
	summaries := ConcatSummaries(s)
	if len(summaries) > qualityContextLimit {
		summaries = summaries[:qualityContextLimit]
	}

	system, human, err := prompts.RenderQualityChecker(ctx, s.Language(), s.FinalAnswer, summaries, s.UserQuery)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", s.ID).Msg("Quality checker prompt failed, using fallback verdict")
		return nil
	}
	raw, err := e.llm.Invoke(ctx, s.Config.ReportModel, system, human)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", s.ID).Msg("Quality checker invocation failed, using fallback verdict")
		return nil
	}

	parsed := parsers.ParseOutput(raw)
	verdict, err := parsers.ExtractVerdict(parsed.Response)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", s.ID).Msg("Quality verdict unparseable, using fallback verdict")
		return nil
	}
	return verdict
}

// linkSources resolves citation markers into display-ready links. The default
// behavior is a pass-through copy; this is the seam for a real resolver.
func (e *Engine) linkSources(s *model.ResearchSession) {
	s.LinkedFinalAnswer = s.FinalAnswer
}
