package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bnsearch/internal/api"
	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/observability"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		sf   storeFlags
		addr string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored results and metrics over HTTP",
		Long: `Serve the result store as a small JSON API with Prometheus metrics.

Routes: /healthz, /version, /results, /results/{key} and /metrics.`,
		Example: `  bnsearch serve --addr :9090 --store redis -c bnsearch.toml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, &sf)
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, sf *storeFlags) error {
	sc, err := sf.resolve()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewPrometheus(reg)
	observability.SetSearchHooks(prom)
	observability.SetStoreHooks(prom)
	defer observability.Reset()

	st, err := c.openStore(ctx, sc)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.New(st, api.WithMetrics(prom.Handler()), api.WithLogger(c.Logger)).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("Listening", "addr", addr, "store", sc.Backend)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeInternal, err, "serve %s", addr)
	case <-ctx.Done():
	}

	c.Logger.Info("Shutting down")
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(errors.ErrCodeInternal, err, "serve %s", addr)
	}
	return nil
}
