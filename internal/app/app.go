// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles all components: database pool,
// Genkit, knowledge store, tool registry, generation client, session store
// and the RAG system.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursechat/coursechat/internal/config"
	"github.com/coursechat/coursechat/internal/knowledge"
	"github.com/coursechat/coursechat/internal/rag"
	"github.com/coursechat/coursechat/internal/session"
	"github.com/coursechat/coursechat/internal/tools"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Knowledge *knowledge.Store
	Registry  *tools.Registry
	Search    *tools.CourseSearch
	Sessions  *session.Store

	System   *rag.System
	Ingestor *rag.Ingestor
}

// Close releases all resources. Safe to call on a partially initialized
// App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}
	if a.DBPool != nil {
		a.DBPool.Close()
	}
	return nil
}
