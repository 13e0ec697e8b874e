package cli

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jsontree/internal/config"
	"github.com/matzehuels/jsontree/internal/server"
	"github.com/matzehuels/jsontree/pkg/cache"
	"github.com/matzehuels/jsontree/pkg/observability"
	"github.com/matzehuels/jsontree/pkg/session"
)

// sessionCleanupInterval is how often expired in-memory sessions are dropped.
const sessionCleanupInterval = time.Minute

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the layout, render and session endpoints over HTTP, with Prometheus
metrics on /metrics.

Sessions live in memory unless the cache backend is redis or mongo, in which
case they are shared by every instance using the same backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observability.NewPrometheus(reg).Install()
	defer observability.Reset()

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	var store session.Store
	switch cfg.Cache.Backend {
	case cache.BackendRedis, cache.BackendMongo:
		store = session.NewCacheStore(runner.Cache, runner.Keyer)
	default:
		store = session.NewMemoryStore()
	}

	sessions := session.NewManager(store, session.Options{
		TTL:      cfg.Server.SessionTTL.Duration,
		Runner:   runner,
		Pipeline: cfg.PipelineOptions(),
	})
	go sessions.RunCleanup(ctx, sessionCleanupInterval)

	srv := server.New(server.Config{
		Runner:   runner,
		Sessions: sessions,
		Defaults: cfg.PipelineOptions(),
		Gatherer: reg,
		Timeout:  cfg.Server.Timeout.Duration,
		Logger:   c.Logger,
	})

	w := cmd.OutOrStdout()
	printSuccess(w, "Listening on http://%s", cfg.Server.Addr)
	printDetail(w, "cache: %s", cfg.Cache.Backend)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
