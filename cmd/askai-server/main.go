package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"askai/internal/completion"
	"askai/internal/config"
	"askai/internal/domain"
	"askai/internal/health"
	"askai/internal/httpapi"
	"askai/internal/index"
	"askai/internal/index/memory"
	"askai/internal/logger"
	"askai/internal/retriever"
	"askai/internal/session"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, addr string
	var reload time.Duration
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/askai/config.yaml if not provided)")
	flag.StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	flag.DurationVar(&reload, "reload", 0, "Re-read the corpus at this interval (0 disables)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	client, err := completion.NewClient(completion.Config{
		URL:       cfg.Completion.URL,
		HealthURL: cfg.Completion.HealthURL,
		APIKeyEnv: cfg.Completion.APIKeyEnv,
		Timeout:   cfg.Completion.Timeout(),
		Logger:    lg,
	})
	if err != nil {
		log.Fatalf("completion client init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	idx := index.New(memory.NewStorage(), lg)
	src := index.SourceFor(cfg.Corpus.Source, &http.Client{Timeout: cfg.Corpus.Timeout()})
	if err := idx.Load(ctx, src); err != nil {
		log.Printf("corpus unavailable: %v", err)
	}
	if reload > 0 {
		go reloadLoop(ctx, idx, src, reload, lg)
	}

	lex := retriever.NewLexical(idx, cfg.Retrieval.Limit)
	srv := httpapi.NewServer(httpapi.Deps{
		Corpus:   idx,
		Searcher: lex,
		NewSession: func() *session.Session {
			s := session.New(
				lex,
				client,
				health.NewMonitor(health.NewHTTPChecker(client.HealthURL(), client.HTTPClient(), lg)),
				session.WithStageDelay(cfg.Session.StageDelay()),
				session.WithRequestTimeout(cfg.Session.RequestTimeout()),
				session.WithLogger(lg),
			)
			if at, _ := idx.LoadedAt(); at.IsZero() {
				s.WarnIndexMissing()
			}
			return s
		},
		Store:          httpapi.NewSessionStore(cfg.Server.SessionTTL()),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         lg,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	lg.Info("server starting", zap.String("addr", cfg.Server.Addr), zap.Int("docs", idx.Len()))
	log.Printf("Ask AI server listening on %s", cfg.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

// reloadLoop re-reads the corpus; a failed reload keeps serving the current set.
func reloadLoop(ctx context.Context, idx *index.Index, src domain.CorpusSource, every time.Duration, lg *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := idx.Load(ctx, src); err != nil {
				lg.Warn("corpus reload failed", zap.Error(err))
			}
		}
	}
}
