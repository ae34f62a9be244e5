package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"tutor-sketchpad/internal/config"
	"tutor-sketchpad/internal/lesson"
	"tutor-sketchpad/internal/live"
	"tutor-sketchpad/internal/llm"
	"tutor-sketchpad/internal/llm/groq"
	"tutor-sketchpad/internal/llm/openai"
	"tutor-sketchpad/internal/router"
	"tutor-sketchpad/internal/server"
	"tutor-sketchpad/internal/session"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sketchpad websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger := pslog.Ctx(ctx)

			rt, err := buildRouter(cfg, logger)
			if err != nil {
				return err
			}
			logger.Info("router ready", "live", rt.LiveAvailable(), "provider", cfg.Live.Provider)

			srv := server.New(rt, server.Config{
				StaticDir:       cfg.HTTP.StaticDir,
				CORSOrigins:     cfg.HTTP.CORSOrigins,
				MaxMessageBytes: cfg.Session.MaxMessageBytes,
				Session: session.Config{
					HonorPacing:  cfg.Session.HonorPacing,
					PaceScale:    cfg.Session.PaceScale,
					WriteTimeout: cfg.Session.WriteTimeout,
				},
			})
			return srv.ListenAndServe(ctx, cfg.HTTP.Addr, cfg.HTTP.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a yaml config file")
	cmd.Flags().String("addr", "", "listen address (overrides http.addr)")
	cmd.Flags().String("static-dir", "", "directory with the browser client (overrides http.static_dir)")
	return cmd
}

// buildRouter wires the scripted lessons and, when an API key is configured,
// the live generator behind its circuit breaker.
func buildRouter(cfg config.Config, logger pslog.Logger) (*router.Router, error) {
	var opts []router.Option
	if cfg.Live.Enabled() {
		gen, err := newGenerator(cfg.Live)
		if err != nil {
			return nil, err
		}
		gen = live.WithBreaker(gen, live.BreakerSettings{
			Name:        cfg.Live.Provider,
			MaxFailures: cfg.Live.Breaker.MaxFailures,
			OpenTimeout: cfg.Live.Breaker.OpenTimeout,
			Logger:      logger,
		})
		opts = append(opts, router.WithLive(live.NewProducer(gen, live.WithCompletionMessage(cfg.Live.CompletionMessage))))
	}
	return router.New(lesson.NewScripted(), opts...), nil
}

func newGenerator(cfg config.LiveConfig) (live.Generator, error) {
	opts := []llm.Option{
		llm.WithModel(cfg.Model),
		llm.WithBaseURL(cfg.BaseURL),
		llm.WithInstructions(cfg.Instructions),
		llm.WithHTTPClient(llm.NewHTTPClient(cfg.Timeout)),
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.New(cfg.APIKey, opts...), nil
	case config.ProviderGroq:
		return groq.New(cfg.APIKey, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported live provider %q", cfg.Provider)
	}
}
