// Command lexiread is the main entry point for the lexiread live captioning
// and reading assessment server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexiread/lexiread/internal/caption"
	"github.com/lexiread/lexiread/internal/config"
	"github.com/lexiread/lexiread/internal/gloss"
	"github.com/lexiread/lexiread/internal/health"
	"github.com/lexiread/lexiread/internal/observe"
	"github.com/lexiread/lexiread/internal/passage"
	"github.com/lexiread/lexiread/internal/results"
	"github.com/lexiread/lexiread/internal/server"
	"github.com/lexiread/lexiread/internal/simplify"
	"github.com/lexiread/lexiread/pkg/asr"
	openaiasr "github.com/lexiread/lexiread/pkg/asr/openai"
	"github.com/lexiread/lexiread/pkg/asr/whisper"
	"github.com/lexiread/lexiread/pkg/vad"
	"github.com/lexiread/lexiread/pkg/vad/energy"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "lexiread: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "lexiread: %v\n", err)
		}
		return 1
	}

	logger, logLevel := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("lexiread starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	reg := config.NewRegistry()
	registerBuiltinEngines(reg)

	transcriber, err := reg.CreateASR(cfg.ASR)
	if err != nil {
		slog.Error("failed to create asr backend", "provider", cfg.ASR.Provider, "err", err)
		return 1
	}
	if transcriber == nil {
		slog.Warn("transcription disabled, caption sessions run text-only")
	} else {
		slog.Info("asr backend created", "provider", cfg.ASR.Provider)
	}
	defer func() {
		if c, ok := transcriber.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Warn("asr close error", "err", err)
			}
		}
	}()

	vadEngine, err := reg.CreateVAD("energy", cfg.VAD)
	if err != nil {
		slog.Error("failed to create vad engine", "err", err)
		return 1
	}

	passages, err := loadPassages(cfg.Reading.PassagesFile)
	if err != nil {
		slog.Error("failed to load passages", "file", cfg.Reading.PassagesFile, "err", err)
		return 1
	}
	slog.Info("passages loaded", "count", len(passages.All()))

	glossary := gloss.New()
	if dir := cfg.Gloss.DictionariesDir; dir != "" {
		if err := glossary.LoadDir(dir); err != nil {
			slog.Warn("gloss dictionary load error, using built-ins", "dir", dir, "err", err)
		}
	}

	store, checkers, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to initialise result storage", "err", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("store close error", "err", err)
		}
	}()

	printStartupSummary(cfg)

	srv := server.New(server.Deps{
		Transcriber: transcriber,
		VAD:         vadEngine,
		Simplifier:  simplify.New(),
		Glossary:    glossary,
		Passages:    passages,
		Store:       store,
		Health:      health.New(version, checkers...),
		Logger:      logger,
		Buffer:      bufferFromConfig(cfg),
	})

	watcher, err := config.NewWatcher(*configPath, func(old, newCfg *config.Config) {
		applyConfigChange(srv, logLevel, newCfg, config.Diff(old, newCfg))
	})
	if err != nil {
		slog.Warn("config hot reload unavailable", "err", err)
	} else {
		defer watcher.Stop()
	}

	listenAddr := cfg.Server.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8000"
	}
	httpSrv := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", listenAddr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", listenAddr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltinEngines wires the ASR and VAD factories that ship with
// lexiread into reg.
func registerBuiltinEngines(reg *config.Registry) {
	reg.RegisterASR(config.ASRNative, func(cfg config.ASRConfig) (asr.Transcriber, error) {
		var opts []whisper.NativeOption
		if cfg.Language != "" {
			opts = append(opts, whisper.WithNativeLanguage(cfg.Language))
		}
		return whisper.NewNative(cfg.ModelPath, opts...)
	})

	reg.RegisterASR(config.ASRServer, func(cfg config.ASRConfig) (asr.Transcriber, error) {
		var opts []whisper.Option
		if cfg.Model != "" {
			opts = append(opts, whisper.WithModel(cfg.Model))
		}
		if cfg.Language != "" {
			opts = append(opts, whisper.WithLanguage(cfg.Language))
		}
		return whisper.NewServer(cfg.ServerURL, opts...)
	})

	reg.RegisterASR(config.ASROpenAI, func(cfg config.ASRConfig) (asr.Transcriber, error) {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		var opts []openaiasr.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openaiasr.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, openaiasr.WithModel(cfg.Model))
		}
		return openaiasr.New(apiKey, opts...)
	})

	reg.RegisterVAD("energy", func(cfg config.VADConfig) (vad.Engine, error) {
		return energy.New(), nil
	})
}

// bufferFromConfig maps config settings onto caption segmentation defaults.
func bufferFromConfig(cfg *config.Config) caption.BufferConfig {
	return caption.BufferConfig{
		SampleRate:      cfg.ASR.SampleRate,
		Language:        cfg.ASR.Language,
		FrameSizeMs:     cfg.VAD.FrameSizeMs,
		SilenceFrames:   cfg.VAD.SilenceFrames,
		MinSegment:      time.Duration(cfg.Caption.MinSegmentMs) * time.Millisecond,
		MinPartial:      time.Duration(cfg.Caption.PartialMinMs) * time.Millisecond,
		EnergyThreshold: cfg.VAD.EnergyThreshold,
	}
}

// applyConfigChange applies the hot-reloadable parts of a config change to
// the running server. Engine, storage, and listener changes only warn; they
// take effect on the next start.
func applyConfigChange(srv *server.Server, logLevel *slog.LevelVar, newCfg *config.Config, d config.ConfigDiff) {
	if d.LogLevelChanged {
		logLevel.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.PassagesChanged {
		lib, err := loadPassages(d.NewPassagesFile)
		if err != nil {
			slog.Warn("passage reload failed, keeping previous set", "file", d.NewPassagesFile, "err", err)
		} else {
			srv.SetPassages(lib)
			slog.Info("passages reloaded", "file", d.NewPassagesFile, "count", len(lib.All()))
		}
	}
	if d.GlossChanged {
		g := gloss.New()
		if d.NewGlossDir != "" {
			if err := g.LoadDir(d.NewGlossDir); err != nil {
				slog.Warn("gloss reload failed, keeping previous dictionaries", "dir", d.NewGlossDir, "err", err)
				g = nil
			}
		}
		if g != nil {
			srv.SetGlossary(g)
			slog.Info("gloss dictionaries reloaded", "dir", d.NewGlossDir)
		}
	}
	if d.CaptionChanged {
		srv.SetCaptionBuffer(bufferFromConfig(newCfg))
		slog.Info("caption segmentation updated, applies to new sessions")
	}
	if d.RestartRequired {
		slog.Warn("server, asr, vad, or storage settings changed; restart to apply")
	}
}

// loadPassages reads the configured passage file, falling back to the
// built-in set when no file is configured.
func loadPassages(path string) (*passage.Library, error) {
	if path == "" {
		return passage.Defaults(), nil
	}
	return passage.Load(path)
}

// buildStore creates the result store selected by cfg, plus the readiness
// checkers that go with it.
func buildStore(ctx context.Context, cfg config.StorageConfig) (results.Store, []health.Checker, error) {
	if cfg.PostgresDSN == "" {
		slog.Warn("no postgres dsn configured, results are kept in memory")
		return results.NewMemory(), nil, nil
	}

	pg, err := results.NewPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("postgres result store connected")

	checker := health.Checker{Name: "database", Check: pg.Ping}
	return pg, []health.Checker{checker}, nil
}

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         lexiread — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printEntry("ASR", summaryValue(string(cfg.ASR.Provider), cfg.ASR.Model))
	printEntry("VAD", "energy")
	if cfg.Storage.PostgresDSN != "" {
		printEntry("Storage", "postgres")
	} else {
		printEntry("Storage", "in-memory")
	}
	printEntry("Passages", summaryValue(cfg.Reading.PassagesFile, ""))
	printEntry("Gloss dir", summaryValue(cfg.Gloss.DictionariesDir, ""))
	if cfg.Server.ListenAddr != "" {
		printEntry("Listen addr", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func summaryValue(name, model string) string {
	if name == "" {
		return "(not configured)"
	}
	if model != "" {
		return name + " / " + model
	}
	return name
}

func printEntry(kind, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s : %-21s ║\n", kind, value)
}

// newLogger builds the process logger. The returned LevelVar lets config hot
// reload adjust verbosity without recreating the handler.
func newLogger(level config.LogLevel) (*slog.Logger, *slog.LevelVar) {
	lvl := new(slog.LevelVar)
	lvl.Set(slogLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), lvl
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
