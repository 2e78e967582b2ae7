package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/LUBTFY/agent-starter-pack/internal/agent"
	"github.com/LUBTFY/agent-starter-pack/internal/ai"
	"github.com/LUBTFY/agent-starter-pack/internal/config"
	"github.com/LUBTFY/agent-starter-pack/internal/embedcache"
	"github.com/LUBTFY/agent-starter-pack/internal/handler"
	"github.com/LUBTFY/agent-starter-pack/internal/job"
	"github.com/LUBTFY/agent-starter-pack/internal/middleware"
	"github.com/LUBTFY/agent-starter-pack/internal/objstore"
	"github.com/LUBTFY/agent-starter-pack/internal/pipeline"
	"github.com/LUBTFY/agent-starter-pack/internal/pkg/jwt"
	"github.com/LUBTFY/agent-starter-pack/internal/schedule"
	"github.com/LUBTFY/agent-starter-pack/internal/source"
	"github.com/LUBTFY/agent-starter-pack/internal/vectorindex"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "ragpilot",
		Short: "retrieval-augmented knowledge base pipeline and serving tools",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	setup := func() (*config.Config, error) {
		if configPath == "" {
			return nil, fmt.Errorf("--config is required")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger.Init(
			cfg.LogConfig.File,
			cfg.LogConfig.Level,
			int(cfg.LogConfig.FileCount),
			int(cfg.LogConfig.FileSize),
			int(cfg.LogConfig.KeepDays),
			cfg.LogConfig.Console,
		)
		logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
		return cfg, nil
	}

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "fetch configured sources, chunk them, write the chunk-record file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			fetcher := source.NewFetcher(nil)
			return pipeline.NewCollector(cfg, fetcher.Fetch).Run(cmd.Context())
		},
	}

	embedCmd := &cobra.Command{
		Use:   "embed",
		Short: "attach embedding vectors to collected chunk records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			embedder, err := newEmbedder(cfg)
			if err != nil {
				return err
			}
			return pipeline.NewEmbedder(cfg, embedder).Run(cmd.Context())
		},
	}

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "upload embedded records and converge the ANN index deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			store, err := objstore.New(cfg.ObjectStore)
			if err != nil {
				return fmt.Errorf("init object store: %w", err)
			}
			svc, err := vectorindex.New(cfg.VectorIndex)
			if err != nil {
				return fmt.Errorf("init vector index service: %w", err)
			}
			result, err := pipeline.NewIndexer(cfg, store, svc).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("endpoint_id: %s\n", result.EndpointID)
			if result.DeploymentID != "" {
				fmt.Printf("deployment_id: %s\n", result.DeploymentID)
			}
			return nil
		},
	}

	queryCmd := &cobra.Command{
		Use:   "query <text>",
		Short: "run a similarity search against the deployed endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			search, err := newSearchTool(cfg)
			if err != nil {
				return err
			}
			result, err := search.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}

	var tokenClient string
	var tokenTTLHours int
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "mint an API token for the online query surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return fmt.Errorf("server.jwt_secret is not configured")
			}
			token, err := jwt.GenerateToken(tokenClient, []byte(cfg.Server.JWTSecret), time.Duration(tokenTTLHours)*time.Hour)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tokenClient, "client", "default", "client id embedded in the token")
	tokenCmd.Flags().IntVar(&tokenTTLHours, "ttl-hours", 72, "token lifetime in hours")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the online query/tool API and the periodic ingest scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	rootCmd.AddCommand(collectCmd, embedCmd, indexCmd, queryCmd, tokenCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

func newEmbedder(cfg *config.Config) (ai.IEmbedder, error) {
	provider, err := ai.NewProvider(cfg.Embedding.Provider, cfg.Embedding.Data)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	return ai.NewEmbedder(provider, cfg.Embedding.Model), nil
}

func newSearchTool(cfg *config.Config) (*agent.VectorSearchTool, error) {
	if cfg.Index.EndpointID == "" || cfg.Index.DeploymentID == "" {
		return nil, fmt.Errorf("index.endpoint_id and index.deployment_id must be configured (run the index stage first)")
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	embedder = embedcache.WrapLruCacheToEmbedder(
		embedder,
		cfg.Embedding.CacheSize,
		time.Duration(cfg.Embedding.CacheTTLSeconds)*time.Second,
	)
	svc, err := vectorindex.New(cfg.VectorIndex)
	if err != nil {
		return nil, fmt.Errorf("init vector index service: %w", err)
	}
	return agent.NewVectorSearchTool(embedder, svc, cfg.Index.EndpointID, cfg.Index.DeploymentID, cfg.Index.TopK), nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info("starting server",
		zap.Int("port", cfg.Server.Port),
		zap.String("vector_index", cfg.VectorIndex.Type))

	search, err := newSearchTool(cfg)
	if err != nil {
		return err
	}

	box := agent.NewToolbox(
		search,
		agent.NewWebSearchTool(cfg.WebSearch),
		agent.NewCodeExecutionTool(),
		agent.NewPlanningTool(),
		agent.NewReflectionTool(),
	)
	if cfg.Agent.Model != "" {
		provider, err := ai.NewProvider(cfg.Embedding.Provider, cfg.Embedding.Data)
		if err != nil {
			return fmt.Errorf("init ai provider: %w", err)
		}
		gen := ai.NewGenerator(provider, cfg.Agent.Model)
		box.Register(agent.NewAgentTool("code_agent",
			"A specialized agent for Python code generation and debugging tasks.",
			agent.GeneratorDelegator(gen)))
		box.Register(agent.NewAgentTool("ii_agent",
			"A specialized agent for internet research tasks.",
			agent.GeneratorDelegator(gen)))
	}

	deps := handler.RouterDeps{
		Query:     handler.NewQueryHandler(search),
		Tools:     handler.NewToolHandler(box),
		JWTSecret: []byte(cfg.Server.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.Server.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.IngestCron != "" {
		ingest, err := buildIngestJob(cfg)
		if err != nil {
			return err
		}
		if err := scheduler.AddJob(ingest, cfg.IngestCron); err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()
	logutil.GetLogger(context.Background()).Info("http server listening",
		zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)))

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func buildIngestJob(cfg *config.Config) (*job.IngestJob, error) {
	fetcher := source.NewFetcher(nil)
	collector := pipeline.NewCollector(cfg, fetcher.Fetch)
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	store, err := objstore.New(cfg.ObjectStore)
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}
	svc, err := vectorindex.New(cfg.VectorIndex)
	if err != nil {
		return nil, fmt.Errorf("init vector index service: %w", err)
	}
	return job.NewIngestJob(
		collector,
		pipeline.NewEmbedder(cfg, embedder),
		pipeline.NewIndexer(cfg, store, svc),
	), nil
}
