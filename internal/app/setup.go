package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/coursechat/coursechat/db"
	"github.com/coursechat/coursechat/internal/chat"
	"github.com/coursechat/coursechat/internal/config"
	"github.com/coursechat/coursechat/internal/course"
	"github.com/coursechat/coursechat/internal/knowledge"
	"github.com/coursechat/coursechat/internal/rag"
	"github.com/coursechat/coursechat/internal/session"
	"github.com/coursechat/coursechat/internal/tools"
)

// Setup creates and initializes the application. Returns an App with
// embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	a.Knowledge = knowledge.New(
		knowledge.NewPgQuerier(pool), embedder, logger.With("component", "knowledge"))

	a.Registry = tools.NewRegistry()
	search, err := tools.NewCourseSearch(a.Knowledge, cfg.SearchTopK, logger.With("component", "search"))
	if err != nil {
		return nil, fmt.Errorf("creating search tool: %w", err)
	}
	if err := tools.RegisterCourseSearch(g, a.Registry, search); err != nil {
		return nil, fmt.Errorf("registering search tool: %w", err)
	}
	a.Search = search

	completer, err := chat.NewGenkitCompleter(g, cfg.FullModelName())
	if err != nil {
		return nil, fmt.Errorf("creating completer: %w", err)
	}
	generator, err := chat.NewGenerator(completer, a.Registry, logger.With("component", "chat"))
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	a.Sessions = session.NewStore(cfg.MaxHistory)

	system, err := rag.NewSystem(generator, search, a.Sessions, logger.With("component", "rag"))
	if err != nil {
		return nil, fmt.Errorf("creating rag system: %w", err)
	}
	a.System = system

	splitter := course.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	ingestor, err := rag.NewIngestor(a.Knowledge, splitter, logger.With("component", "ingest"))
	if err != nil {
		return nil, fmt.Errorf("creating ingestor: %w", err)
	}
	a.Ingestor = ingestor

	return a, nil
}

// provideGenkit initializes Genkit with the Gemini plugin. The plugin reads
// GEMINI_API_KEY from the environment.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	return g, nil
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool
// with pgvector types registered on every connection.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
