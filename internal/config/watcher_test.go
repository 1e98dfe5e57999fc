package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, listenAddr string, level LogLevel) {
	t.Helper()
	content := "server:\n  listen_addr: \"" + listenAddr + "\"\n  log_level: " + string(level) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcherInitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, ":8000", LogInfo)

	w, err := NewWatcher(path, nil, WithInterval(time.Hour))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().Server.ListenAddr; got != ":8000" {
		t.Errorf("unexpected listen_addr %q", got)
	}
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, ":8000", LogInfo)

	changed := make(chan *Config, 1)
	w, err := NewWatcher(path, func(old, new *Config) {
		changed <- new
	}, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	// Rewrite with different content and a bumped mtime.
	writeConfig(t, path, ":9000", LogDebug)
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.Server.ListenAddr != ":9000" {
			t.Errorf("unexpected reloaded listen_addr %q", cfg.Server.ListenAddr)
		}
		if w.Current().Server.LogLevel != LogDebug {
			t.Errorf("Current not updated: %+v", w.Current().Server)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherKeepsOldConfigOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, ":8000", LogInfo)

	w, err := NewWatcher(path, func(old, new *Config) {
		t.Error("onChange must not fire for an invalid config")
	}, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("server:\n  nope: true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if got := w.Current().Server.ListenAddr; got != ":8000" {
		t.Errorf("expected old config retained, got listen_addr %q", got)
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		return &Config{
			Server:  ServerConfig{ListenAddr: ":8000", LogLevel: LogInfo},
			ASR:     ASRConfig{Provider: ASRServer, ServerURL: "http://localhost:8080"},
			Reading: ReadingConfig{PassagesFile: "passages.json"},
			Caption: CaptionConfig{MinSegmentMs: 500},
		}
	}

	t.Run("no changes", func(t *testing.T) {
		t.Parallel()
		d := Diff(base(), base())
		if d != (ConfigDiff{}) {
			t.Errorf("expected empty diff, got %+v", d)
		}
	})

	t.Run("hot reloadable", func(t *testing.T) {
		t.Parallel()
		new := base()
		new.Server.LogLevel = LogDebug
		new.Reading.PassagesFile = "other.json"
		new.Caption.MinSegmentMs = 700

		d := Diff(base(), new)
		if !d.LogLevelChanged || d.NewLogLevel != LogDebug {
			t.Errorf("log level change not detected: %+v", d)
		}
		if !d.PassagesChanged || d.NewPassagesFile != "other.json" {
			t.Errorf("passages change not detected: %+v", d)
		}
		if !d.CaptionChanged || d.NewCaptionConfig.MinSegmentMs != 700 {
			t.Errorf("caption change not detected: %+v", d)
		}
		if d.RestartRequired {
			t.Error("hot-reloadable changes must not require restart")
		}
	})

	t.Run("restart required", func(t *testing.T) {
		t.Parallel()
		new := base()
		new.ASR.Provider = ASRNative
		new.ASR.ModelPath = "models/ggml-base.en.bin"

		d := Diff(base(), new)
		if !d.RestartRequired {
			t.Error("ASR change must require restart")
		}
	})
}
