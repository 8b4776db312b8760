package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/reflow-ui/reflow/internal/config"
	"github.com/reflow-ui/reflow/pkg/metrics"
	"github.com/reflow-ui/reflow/pkg/reactive"
	"github.com/reflow-ui/reflow/pkg/remote"
	"github.com/reflow-ui/reflow/pkg/renderer"
	"github.com/reflow-ui/reflow/pkg/vdom"
)

func serveCmd() *cobra.Command {
	var configPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo counter application",
		Long: `Start a websocket server running the built-in counter component.

The server streams host-tree mutations to connecting clients and
exposes Prometheus metrics on /metrics when enabled in reflow.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			level := slog.LevelInfo
			if cfg.Debug {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			var met *metrics.Metrics
			if cfg.Metrics.Enabled {
				met = metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace))
			}

			server := remote.NewServer(counterApp, cfg,
				remote.WithServerLogger(logger),
				remote.WithServerMetrics(met),
			)

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Recoverer)
			r.Mount("/", server.Routes())
			if cfg.Metrics.Enabled {
				r.Handle("/metrics", promhttp.Handler())
			}

			httpServer := &http.Server{
				Addr:              cfg.Serve.Addr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("serving", "addr", cfg.Serve.Addr, "metrics", cfg.Metrics.Enabled)
			fmt.Printf("reflow serving on ws://%s/ws\n", cfg.Serve.Addr)
			return httpServer.ListenAndServe()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.ConfigFileName, "Path to reflow.yaml")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config)")

	return cmd
}

// counterApp builds the demo root: a counter with an increment button
// and a keyed history list of the values it has held.
func counterApp(rt *reactive.Runtime) *vdom.VNode {
	counter := &renderer.Component{
		Name: "Counter",
		Setup: func(props *reactive.Store, ctx renderer.SetupContext) map[string]any {
			count := rt.NewRef(0)
			history := rt.WrapSlice([]any{})
			return map[string]any{
				"count":   count,
				"history": history,
				"increment": func(any) {
					history.Append(count.Peek())
					count.Set(count.Peek().(int) + 1)
				},
			}
		},
		Render: func(c *renderer.Ctx) any {
			history := c.Get("history").(*reactive.List)
			items := make([]*vdom.VNode, 0, history.Len())
			for i := 0; i < history.Len(); i++ {
				v := history.Index(i)
				items = append(items, vdom.H("li", vdom.Props{"key": v}, fmt.Sprintf("%v", v)))
			}
			return vdom.H("div", vdom.Props{"class": "counter"}, []*vdom.VNode{
				vdom.H("p", nil, fmt.Sprintf("count: %v", c.Get("count"))),
				vdom.H("button", vdom.Props{"onClick": c.Get("increment")}, "increment"),
				vdom.H("ul", nil, items),
			})
		},
	}
	return vdom.New(counter, nil, nil)
}
