package cli

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flamecast/internal/server"
	"github.com/matzehuels/flamecast/pkg/cache"
	"github.com/matzehuels/flamecast/pkg/observability/prom"
	"github.com/matzehuels/flamecast/pkg/pipeline"
	"github.com/matzehuels/flamecast/pkg/runstore"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, redisURL, mongoURI string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solve API over HTTP",
		Long: `Serve exposes POST /v1/solve and the run inspection endpoints. Results are
cached in Redis when a URL is configured and in the local cache directory
otherwise. Runs are recorded in MongoDB when a URI is configured and kept in
memory otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings().Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("redis-url") {
				cfg.RedisURL = redisURL
			}
			if cmd.Flags().Changed("mongo-uri") {
				cfg.Mongo.URI = mongoURI
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL for the result cache")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI for run records")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg ServerConfig) error {
	logger := loggerFromContext(ctx)

	runner, err := c.serverRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	reg := prometheus.NewRegistry()
	if err := prom.New().Install(reg); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(runner, logger, reg).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	printInfo("Listening on %s", StyleLink.Render(listenURL(cfg.Addr)))

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	printSuccess("Server stopped")
	return nil
}

func listenURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

// serverRunner wires the shared backends when configured and falls back to
// local ones otherwise.
func (c *CLI) serverRunner(ctx context.Context, cfg ServerConfig) (*pipeline.Runner, error) {
	logger := loggerFromContext(ctx)

	var ch cache.Cache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, c.settings().Cache.RedisPrefix)
		if err != nil {
			return nil, err
		}
		logger.Info("using redis cache")
		ch = rc
	} else {
		fc, err := c.newCache(ctx, false)
		if err != nil {
			return nil, err
		}
		ch = fc
	}

	var store runstore.Store = runstore.NewMemoryStore()
	if cfg.Mongo.URI != "" {
		ms, err := runstore.NewMongoStore(ctx, cfg.Mongo)
		if err != nil {
			ch.Close()
			return nil, err
		}
		logger.Info("using mongo run store", "database", cfg.Mongo.Database)
		store = ms
	}
	return pipeline.NewRunner(ch, nil, store, logger), nil
}
