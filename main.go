package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/deepresearch-core-poc/server/internal/researcher/gateways"
	"github.com/deepresearch-core-poc/server/internal/researcher/model"
	"github.com/deepresearch-core-poc/server/internal/researcher/repo"
	"github.com/deepresearch-core-poc/server/internal/researcher/workflow"
	logx "github.com/deepresearch-core-poc/server/pkg/logger"
	pkgredis "github.com/deepresearch-core-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the research example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis      pkgredis.Config
	SessionTTL string `envconfig:"SESSION_TTL" default:"24h"`

	// Gateways
	LLM       gateways.LLMConfig
	Retriever gateways.RetrieverConfig
	Tavily    gateways.TavilyConfig

	// Research run settings, snapshotted into each session
	Research model.ResearchConfig
}

func main() {
	fmt.Println("Testing Deep Researcher Workflow...")
	ctx := context.Background()
	logx.Init()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	fmt.Println("Connected to Redis successfully")

	ttl, err := time.ParseDuration(envCfg.SessionTTL)
	if err != nil {
		log.Fatalf("Invalid SESSION_TTL '%s': %v", envCfg.SessionTTL, err)
	}
	sessions := repo.NewRedisSessionRepository(rdb, ttl)

	// ====================================================
	// Build gateways entirely from env
	llm, err := gateways.NewLLMGateway(ctx, envCfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialise LLM gateway: %v", err)
	}

	embedder := gateways.NewGenAIEmbedder(llm.Client(), envCfg.Retriever.EmbeddingModel)
	retriever := gateways.NewQdrantRetriever(envCfg.Retriever, embedder)
	web := gateways.NewTavilyClient(envCfg.Tavily)

	refiner := workflow.NewRefiner(llm)
	engine := workflow.NewEngine(llm, retriever, web)

	// ====================================================
	// Scripted refinement exchange: one feedback turn, then finalize.
	sessionID := "test-research-123451"
	userQuery := "What is quantum entanglement and how is it used in computing?"

	fmt.Printf("\nQuery: %q\n", userQuery)
	hitl := refiner.StartSession(ctx, sessionID, userQuery, envCfg.Research)
	fmt.Printf("Detected language: %s\n", hitl.Language())

	if err := refiner.GenerateFollowUpQuestions(ctx, hitl); err != nil {
		log.Fatalf("Failed to generate follow-up questions: %v", err)
	}
	fmt.Printf("\nFollow-up questions:\n%s\n", hitl.FollowUpQuestions)

	hitl.HumanFeedback = "Focus on practical applications in quantum computing, keep the physics background brief."
	if err := refiner.AnalyseFeedback(ctx, hitl); err != nil {
		log.Fatalf("Failed to analyse feedback: %v", err)
	}
	if err := sessions.SaveHitl(ctx, hitl); err != nil {
		log.Fatalf("Failed to save refinement session: %v", err)
	}

	research, err := refiner.Finalize(ctx, hitl)
	if err != nil {
		log.Fatalf("Failed to finalize refinement: %v", err)
	}
	fmt.Printf("\nResearch queries (%d):\n", len(research.ResearchQueries))
	for i, q := range research.ResearchQueries {
		fmt.Printf("  %d. %s\n", i+1, q)
	}

	// ====================================================
	// Run the research workflow to completion.
	fmt.Println("\nRunning research workflow...")
	start := time.Now()
	if err := engine.Run(ctx, research); err != nil {
		log.Fatalf("Research workflow failed: %v", err)
	}
	if err := sessions.SaveResearch(ctx, research); err != nil {
		log.Fatalf("Failed to save research session: %v", err)
	}

	fmt.Printf("\nCompleted in %s (reflections: %d", time.Since(start).Round(time.Second), research.ReflectionCount)
	if research.QualityCheck != nil {
		fmt.Printf(", quality score: %d", research.QualityCheck.QualityScore)
	}
	fmt.Println(")")
	fmt.Println("─────────────────────────────────────────────")
	fmt.Println(research.LinkedFinalAnswer)
	fmt.Println("─────────────────────────────────────────────")
	fmt.Println("Research session completed successfully!")
}
