// Package prompts is the template registry for every workflow step. System
// prompts live in embedded template files; human prompts are inline FString
// templates. Rendering goes through the Eino prompt component so prompt
// callbacks fire and substitution failures surface as errors.
package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/language_detector.txt
var languageDetectorSystem string

//go:embed template/feedback_analysis.txt
var feedbackAnalysisSystem string

//go:embed template/follow_up_questions.txt
var followUpQuestionsSystem string

//go:embed template/deep_analysis.txt
var deepAnalysisSystem string

//go:embed template/knowledge_base_search.txt
var knowledgeBaseSearchSystem string

//go:embed template/summarizer.txt
var summarizerSystem string

//go:embed template/report_writer.txt
var reportWriterSystem string

//go:embed template/quality_checker.txt
var qualityCheckerSystem string

const languageDetectorHuman = `Detect the language of this query: {query}`

const feedbackAnalysisHuman = `# RESEARCH CONTEXT
Initial Query: {query}

# HUMAN FEEDBACK TO ANALYZE
{human_feedback}

# TASK
Analyze the human feedback above in the context of the initial research query and provide structured insights that will improve the research process:`

const followUpQuestionsHuman = `# RESEARCH CONTEXT
Initial Query: {query}

# CURRENT ANALYSIS
{analysis}

# TASK
Based on the research context and analysis above, generate strategic follow-up questions that will help clarify requirements and improve the research process:`

const deepAnalysisHuman = `# ORIGINAL QUERY
{query}

# COMPLETE CONVERSATION HISTORY
{additional_context}

# HUMAN FEEDBACK EXCHANGES
{human_feedback}

# TASK
Based on the complete conversation above, provide 3-4 profound insights that capture the essence of the user's information needs in {language}:`

const knowledgeBaseSearchHuman = `# INITIAL USER QUERY
{query}

# DEEP ANALYSIS OF INFORMATION NEEDS
{deep_analysis}

# TASK
Based on the initial query and the deep analysis above, generate 5 targeted knowledge base search questions in {language} that will help retrieve the most relevant information:`

const summarizerHuman = `Query: {user_query}

AI-Human Feedback: {human_feedback}

Documents:
{documents}

IMPORTANT: You MUST write your entire response in {language} language only.`

const reportWriterHuman = `Create an extensive, detailed and deep report with exact levels, figures, numbers, statistics, and quantitative data based on the following information.

User query: {instruction}

Information for answering the user's query (use ONLY this information, do not add any external knowledge, no prefix or suffix, just plain markdown text):
{information}

Report structure to follow:
{report_structure}

YOU MUST STRICTLY respond in {language} language and with proper citations.`

const qualityCheckerHuman = `Please assess the following FINAL ANSWER based on the provided source documents.

FINAL ANSWER TO EVALUATE:
{final_answer}

SOURCE DOCUMENT SUMMARIES:
{all_summaries}

ORIGINAL USER QUERY:
{query}

Evaluate on the same four dimensions from 0-100 (see SYSTEM PROMPT for definitions) and produce the JSON object described there ONLY (no extra commentary).

INSTRUCTIONS:
- Output ONLY a valid JSON object in that structure.
- "improvement_suggestions" must be a SINGLE STRING using {language}.
- No lists, no explanations, no preamble - just the JSON object.`

// render formats a system/human template pair via the Eino prompt component
// and returns both rendered texts.
func render(ctx context.Context, systemTpl, humanTpl string, vars map[string]any) (string, string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemTpl),
		schema.UserMessage(humanTpl),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", "", fmt.Errorf("render prompt: %w", err)
	}
	if len(msgs) < 2 || msgs[0] == nil || msgs[1] == nil {
		return "", "", fmt.Errorf("render prompt: incomplete result")
	}
	return msgs[0].Content, msgs[1].Content, nil
}

// RenderLanguageDetector renders the language detection step.
func RenderLanguageDetector(ctx context.Context, query string) (string, string, error) {
	return render(ctx, languageDetectorSystem, languageDetectorHuman, map[string]any{
		"query": query,
	})
}

// RenderFeedbackAnalysis renders the HITL feedback analysis step.
func RenderFeedbackAnalysis(ctx context.Context, language, query, humanFeedback string) (string, string, error) {
	return render(ctx, feedbackAnalysisSystem, feedbackAnalysisHuman, map[string]any{
		"language":       language,
		"query":          query,
		"human_feedback": humanFeedback,
	})
}

// RenderFollowUpQuestions renders the follow-up question generation step.
func RenderFollowUpQuestions(ctx context.Context, language, query, analysis string) (string, string, error) {
	if analysis == "" {
		analysis = "No detailed analysis available."
	}
	return render(ctx, followUpQuestionsSystem, followUpQuestionsHuman, map[string]any{
		"language": language,
		"query":    query,
		"analysis": analysis,
	})
}

// RenderDeepAnalysis renders the finalization deep-analysis step.
func RenderDeepAnalysis(ctx context.Context, language, query, additionalContext, humanFeedback string) (string, string, error) {
	if additionalContext == "" {
		additionalContext = "No detailed conversation history."
	}
	return render(ctx, deepAnalysisSystem, deepAnalysisHuman, map[string]any{
		"language":           language,
		"query":              query,
		"additional_context": additionalContext,
		"human_feedback":     humanFeedback,
	})
}

// RenderKnowledgeBaseSearch renders the knowledge-base question step.
func RenderKnowledgeBaseSearch(ctx context.Context, language, query, deepAnalysis string) (string, string, error) {
	return render(ctx, knowledgeBaseSearchSystem, knowledgeBaseSearchHuman, map[string]any{
		"language":      language,
		"query":         query,
		"deep_analysis": deepAnalysis,
	})
}

// RenderSummarizer renders the per-query document summarization step.
func RenderSummarizer(ctx context.Context, language, userQuery, humanFeedback, documents string) (string, string, error) {
	return render(ctx, summarizerSystem, summarizerHuman, map[string]any{
		"language":       language,
		"user_query":     userQuery,
		"human_feedback": humanFeedback,
		"documents":      documents,
	})
}

// RenderReportWriter renders the final report generation step.
func RenderReportWriter(ctx context.Context, language, instruction, information, reportStructure string) (string, string, error) {
	return render(ctx, reportWriterSystem, reportWriterHuman, map[string]any{
		"language":         language,
		"instruction":      instruction,
		"information":      information,
		"report_structure": reportStructure,
	})
}

// RenderQualityChecker renders the report quality assessment step.
func RenderQualityChecker(ctx context.Context, language, finalAnswer, allSummaries, query string) (string, string, error) {
	return render(ctx, qualityCheckerSystem, qualityCheckerHuman, map[string]any{
		"language":      language,
		"final_answer":  finalAnswer,
		"all_summaries": allSummaries,
		"query":         query,
	})
}
