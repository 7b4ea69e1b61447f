package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/marbleworks/rxkit/pkg/pipeline"
)

// serveCommand creates the serve command exposing pipeline runs over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pipeline runs over HTTP as server-sent events",
		Long: `Serve starts an HTTP server that plays marble pipelines on demand.

Endpoints:
  GET /healthz            liveness probe
  GET /operators          supported operators as JSON
  GET /streams/run        run a pipeline, stream events as SSE

Query parameters for /streams/run:
  source    marble diagram (required)
  op        operator, name or name:arg (repeatable)
  frame_ms  frame duration in milliseconds
  value     token mapping, token=value (repeatable)

Example:
  rxkit serve --addr localhost:8080
  curl -N 'http://localhost:8080/streams/run?source=-a-b-|&op=upper'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Addr
			}
			return c.serve(cmd.Context(), addr, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, localhost:8080)")
	cmd.Flags().StringVar(&configPath, "config", "", "config file path")

	return cmd
}

// serve runs the HTTP server until ctx is cancelled.
func (c *CLI) serve(ctx context.Context, addr string, cfg Config) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.routes(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// routes builds the chi router.
func (c *CLI) routes(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/operators", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pipeline.OpNames())
	})

	r.Get("/streams/run", c.handleStreamRun(cfg))

	return r
}

// handleStreamRun runs a pipeline from query parameters and streams its
// events as SSE.
func (c *CLI) handleStreamRun(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		opts, err := optionsFromQuery(req, cfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := opts.ValidateAndSetDefaults(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		runner := c.newRunner()
		d, err := runner.Parse(opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		chain, err := runner.Build(d, opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ctx := req.Context()
		start := time.Now()
		send := func(kind, value string) {
			payload, _ := json.Marshal(map[string]any{
				"at_ms": time.Since(start).Milliseconds(),
				"value": value,
			})
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", kind, payload)
			flusher.Flush()
		}

		err = chain.Blocking().ForEach(ctx, func(v string) {
			send("next", v)
		})
		switch {
		case errors.Is(err, context.Canceled):
			// Client went away, nothing left to write.
		case err != nil:
			send("error", err.Error())
		default:
			send("complete", "")
		}
	}
}

// optionsFromQuery builds pipeline options from request query parameters,
// falling back to config defaults.
func optionsFromQuery(req *http.Request, cfg Config) (pipeline.Options, error) {
	q := req.URL.Query()

	opts := pipeline.Options{
		Source:  q.Get("source"),
		FrameMS: cfg.FrameMS,
	}
	if opts.Source == "" {
		return pipeline.Options{}, fmt.Errorf("source parameter is required")
	}

	if raw := q.Get("frame_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("invalid frame_ms %q", raw)
		}
		opts.FrameMS = ms
	}

	for _, raw := range q["op"] {
		spec, err := pipeline.ParseOpSpec(raw)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Ops = append(opts.Ops, spec)
	}

	values := make(map[string]string)
	for k, v := range cfg.Values {
		values[k] = v
	}
	for _, pair := range q["value"] {
		k, v, ok := cutPair(pair)
		if !ok {
			return pipeline.Options{}, fmt.Errorf("invalid value %q (want token=value)", pair)
		}
		values[k] = v
	}
	if len(values) > 0 {
		opts.Values = values
	}

	return opts, nil
}

func cutPair(pair string) (string, string, bool) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			return pair[:i], pair[i+1:], i > 0
		}
	}
	return "", "", false
}
