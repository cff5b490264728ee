package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"askai/internal/completion"
	"askai/internal/config"
	"askai/internal/health"
	"askai/internal/index"
	"askai/internal/index/memory"
	"askai/internal/logger"
	"askai/internal/retriever"
	"askai/internal/session"
	"askai/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, corpus string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/askai/config.yaml if not provided)")
	flag.StringVar(&corpus, "corpus", "", "Corpus file or URL (overrides corpus.source)")
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
	if corpus != "" {
		cfg.Corpus.Source = corpus
	}

	// the console core would draw over the terminal UI
	logCfg := cfg.Log
	logCfg.Console = false
	lg, err := logger.New(logCfg)
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

	idx := index.New(memory.NewStorage(), lg)
	checker := health.NewHTTPChecker(client.HealthURL(), client.HTTPClient(), lg)
	sess := session.New(
		retriever.NewLexical(idx, cfg.Retrieval.Limit),
		client,
		health.NewMonitor(checker),
		session.WithStageDelay(cfg.Session.StageDelay()),
		session.WithRequestTimeout(cfg.Session.RequestTimeout()),
		session.WithLogger(lg),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := index.SourceFor(cfg.Corpus.Source, &http.Client{Timeout: cfg.Corpus.Timeout()})
	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Corpus.Timeout())
	_ = sess.Init(loadCtx, idx, src)
	cancelLoad()

	p := tea.NewProgram(tui.New(ctx, sess), tea.WithAltScreen())
	// Send blocks until the program loop runs; the model drops stale versions
	unsubscribe := sess.Subscribe(func(s session.Snapshot) { go p.Send(tui.SnapshotMsg(s)) })
	defer unsubscribe()
	sess.Open(ctx)

	if _, err := p.Run(); err != nil {
		lg.Error("terminal ui failed", zap.Error(err))
		log.Fatal(err)
	}
}
