package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/camdenv/website/blog/application"
	"github.com/camdenv/website/blog/persistence"
	"github.com/camdenv/website/internal/config"
	"github.com/camdenv/website/internal/middleware"
	"github.com/camdenv/website/internal/rest"
	"github.com/camdenv/website/shared/db/sqlite"
	webhookhttp "github.com/camdenv/website/webhook/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		if cfg.WebhookSecret == "" {
			return fmt.Errorf("WEBHOOK_SECRET must be set")
		}

		deps, err := buildServices(cfg)
		if err != nil {
			return err
		}
		defer deps.close()

		gin.SetMode(gin.ReleaseMode)
		engine := gin.New()
		engine.HandleMethodNotAllowed = true
		engine.Use(middleware.Logging())
		engine.Use(gin.CustomRecovery(middleware.HandlePanics()))

		rest.NewAPI(deps.posts, cfg).RegisterRoutes(engine)
		webhookhttp.NewWebhookHandler([]byte(cfg.WebhookSecret), deps.posts).RegisterRoutes(engine)

		srv := &http.Server{
			Addr:    cfg.Addr,
			Handler: engine,
		}

		go func() {
			log.Info().Str("addr", cfg.Addr).Msg("Starting server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Failed to start server")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt)
		<-quit

		log.Info().Msg("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		log.Info().Msg("Server stopped")
		return nil
	},
}

// services bundles the wired application dependencies.
type services struct {
	posts *application.PostService
	db    interface{ Close() error }
}

func (s *services) close() {
	if err := s.db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}
}

func buildServices(cfg *config.Config) (*services, error) {
	database := sqlite.New(sqlite.NewConfig())
	if err := database.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	source := newContentRepository(cfg)
	repo := persistence.NewPostRepository(database.DB())
	renderer := application.NewMarkdownRenderer(cfg.SiteURL)
	cache := application.NewPostCache(repo, cfg.CacheTTL)
	posts := application.NewPostService(repo, source, renderer, cache, cfg.RedirectUnlisted)

	return &services{posts: posts, db: database}, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
