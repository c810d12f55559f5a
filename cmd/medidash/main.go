// Command medidash serves the practice dashboard backend: widget and layout
// state over REST, plus the live transcription bridge.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/outsquaremd/medidash/config"
	"github.com/outsquaremd/medidash/dashboard"
	"github.com/outsquaremd/medidash/kv"
	"github.com/outsquaremd/medidash/server"
	"github.com/outsquaremd/medidash/speech"
	"github.com/outsquaremd/medidash/speech/assemblyai"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("starting medidash", "version", version, "commit", commit, "date", date)

	path := *configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			slog.Error("resolve config path", "error", err)
			os.Exit(1)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = newSecret()
		if err := cfg.Save(path); err != nil {
			slog.Warn("persist generated token secret", "error", err)
		} else {
			slog.Info("generated token signing secret", "path", path)
		}
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(filepath.Dir(path), "data")
	}
	db, err := kv.OpenBadger(dataDir)
	if err != nil {
		slog.Error("open data store", "error", err, "path", dataDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("close data store", "error", err)
		}
	}()
	slog.Info("data store opened", "path", dataDir)

	store := dashboard.NewStore(db)
	store.Load()
	slog.Info("dashboard state loaded",
		"widgets", store.Stats().Widgets,
		"saved_layouts", store.Stats().SavedLayouts)

	defs := dashboard.NewRegistry()
	defs.Seed()

	tokens, err := server.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		slog.Error("init token manager", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		Tokens:             tokens,
		Dial:               setupDialer(cfg),
		Transcribers:       setupTranscribers(cfg),
		DefaultTranscriber: defaultTranscriber(cfg),
		SampleRate:         cfg.Speech.SampleRate,
		Framing:            cfg.Speech.Framing,
	}, store, defs)
	if err != nil {
		slog.Error("init server", "error", err)
		os.Exit(1)
	}

	if err := srv.Run(cfg.Addr()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// setupDialer wires the realtime streaming provider when its account key is
// configured. The key stays in this process; sessions connect with minted
// short-lived tokens.
func setupDialer(cfg *config.Config) speech.DialFunc {
	if cfg.Speech.AssemblyAIKey == "" {
		slog.Warn("live transcription disabled, no streaming API key configured")
		return nil
	}
	tokens := assemblyai.NewTokenClient(cfg.Speech.AssemblyAIKey, "")
	return assemblyai.Dialer(tokens, assemblyai.Config{
		SampleRate:  cfg.Speech.SampleRate,
		FormatTurns: cfg.Speech.FormatTurns,
	})
}

func setupTranscribers(cfg *config.Config) *speech.Registry {
	registry := speech.NewRegistry()
	if cfg.Speech.OpenAIKey != "" {
		registry.Register(speech.NewWhisper(cfg.Speech.OpenAIKey, cfg.Speech.WhisperModel))
		slog.Info("registered batch transcription provider", "provider", "whisper")
	}
	return registry
}

func defaultTranscriber(cfg *config.Config) string {
	if cfg.Speech.OpenAIKey != "" {
		return "whisper"
	}
	return ""
}

func newSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		slog.Error("generate token secret", "error", err)
		os.Exit(1)
	}
	return hex.EncodeToString(buf)
}
