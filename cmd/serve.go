package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/excellere/excellere/internal/assessment"
	"github.com/excellere/excellere/internal/auth"
	"github.com/excellere/excellere/internal/config"
	"github.com/excellere/excellere/internal/credential"
	"github.com/excellere/excellere/internal/curriculum"
	"github.com/excellere/excellere/internal/difficulty"
	"github.com/excellere/excellere/internal/httpapi"
	"github.com/excellere/excellere/internal/llm"
	"github.com/excellere/excellere/internal/logger"
	"github.com/excellere/excellere/internal/notify"
	"github.com/excellere/excellere/internal/observability"
	"github.com/excellere/excellere/internal/phasestore"
	"github.com/excellere/excellere/internal/review"
	"github.com/excellere/excellere/internal/teachback"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides EXCELLERE_ADDR)")
}

// serve wires the services and runs the HTTP server until SIGINT/SIGTERM.
func serve(ctx context.Context, cfg config.Config) error {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, cfg.Tracing, version, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	phases, closePhases, err := newPhaseStore(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closePhases()

	provider, err := llm.NewProvider(ctx, cfg.LLM, st.LLMEvents(), log)
	if err != nil {
		log.Warn("LLM provider not configured, analyses will degrade", "error", err)
		// An empty mock fails every call.
		provider = llm.NewMockProvider()
	}

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTTL)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	mailer, err := newMailer(cfg.Email, log)
	if err != nil {
		return err
	}

	catalog, err := curriculum.Default()
	if err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}

	teach := teachback.NewService(teachback.Deps{
		Repo:      teachback.NewRepository(st),
		Phases:    phases,
		Catalog:   catalog,
		Requestor: assessment.NewRequestor(assessment.NewLLMAnalysisProvider(provider, assessment.DefaultConfig()), log),
		Reports:   assessment.NewReportGenerator(provider, assessment.DefaultReportConfig(), log),
		Policy:    difficulty.Policy{MaxExternalStepUp: cfg.Difficulty.MaxExternalStepUp},
		Log:       log,
	})
	reviews := review.NewService(review.Deps{
		Store:         st,
		Issuer:        issuer,
		Badges:        teach,
		Mailer:        mailer,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Log:           log,
	})

	gin.SetMode(cfg.Server.Mode)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Log:         log,
		Issuer:      issuer,
		TeachBack:   teach,
		Review:      reviews,
		Credentials: credential.NewService(st, catalog, cfg.Server.PublicBaseURL, log),
		Catalog:     catalog,
		DB:          st,
		CORSOrigins: cfg.Server.CORSOrigins,
		ServiceName: cfg.Tracing.ServiceName,
		Tracing:     cfg.Tracing.Exporter != "" && cfg.Tracing.Exporter != "none",
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Server.Addr, "version", version, "llm_model", provider.ModelID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// newPhaseStore returns the Redis phase store when an address is
// configured, otherwise the in-process one.
func newPhaseStore(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (phasestore.Store, func(), error) {
	if cfg.Addr == "" {
		log.Warn("redis not configured, phase state is held in memory")
		return phasestore.NewMemory(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	log.Info("phase state in redis", "addr", cfg.Addr, "ttl", cfg.PhaseTTL.String())
	return phasestore.NewRedis(client, cfg.PhaseTTL), func() { client.Close() }, nil
}

func newMailer(cfg config.EmailConfig, log *logger.Logger) (notify.Mailer, error) {
	if cfg.SendGridAPIKey == "" {
		return notify.NewNop(log), nil
	}
	m, err := notify.NewSendGrid(notify.SendGridConfig{
		APIKey:  cfg.SendGridAPIKey,
		BaseURL: cfg.BaseURL,
		From:    notify.Address{Email: cfg.FromEmail, Name: cfg.FromName},
		Timeout: cfg.Timeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init email: %w", err)
	}
	return m, nil
}
