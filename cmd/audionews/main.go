package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dynamicdevices/audionews/internal/ai"
	"github.com/dynamicdevices/audionews/internal/analyzer"
	"github.com/dynamicdevices/audionews/internal/collector"
	"github.com/dynamicdevices/audionews/internal/config"
	"github.com/dynamicdevices/audionews/internal/digest"
	"github.com/dynamicdevices/audionews/internal/logger"
	"github.com/dynamicdevices/audionews/internal/metrics"
	"github.com/dynamicdevices/audionews/internal/synthesis"
	"github.com/dynamicdevices/audionews/internal/tts"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	localeFlag := flag.String("locale", "en_GB", "locale to generate, or 'all' for every configured locale")
	keywordFallback := flag.Bool("keyword-fallback", false, "classify stories by keyword table instead of the model")
	flag.Parse()

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	locales, err := config.LoadLocales(cfg.LocalesPath)
	if err != nil {
		logger.Error("invalid locales file", "error", err, "path", cfg.LocalesPath)
		os.Exit(1)
	}

	ctx := context.Background()

	capability, err := ai.New(ctx, cfg.Provider, cfg.ProviderKey())
	if err != nil {
		logger.Error("failed to initialize AI provider", "error", err)
		os.Exit(1)
	}
	if closer, ok := capability.(interface{ Close() }); ok {
		defer closer.Close()
	}
	capability = ai.WithBudget(capability, ai.NewBudget(cfg.MaxModelCalls))

	speech := tts.NewClient(tts.ClientOptions{
		Endpoint:  cfg.SpeechEndpoint,
		Timeout:   cfg.SpeechTimeout,
		ForceIPv4: cfg.ForceIPv4,
	})
	store := digest.NewStore(cfg.OutputDir)
	fetcher := collector.NewHTTPFetcher(cfg.RequestTimeout)

	ids := []string{*localeFlag}
	if *localeFlag == "all" {
		ids = locales.Order
	}

	today := time.Now()
	failed := false

	for _, id := range ids {
		loc, err := locales.Get(id)
		if err != nil {
			logger.Error("unknown locale", "locale", id)
			failed = true
			continue
		}

		tun := locales.Defaults
		orch := digest.NewOrchestrator(digest.Options{
			Locale:      loc,
			Tunables:    tun,
			Collector:   collector.New(fetcher, loc, tun),
			Analyzer:    analyzer.New(capability, loc, tun),
			Synthesizer: synthesis.New(capability, loc, tun),
			Renderer: tts.NewRenderer(speech, tts.Policy{
				MaxAttempts:   tun.TTS.MaxAttempts,
				InitialDelay:  tun.TTS.InitialDelay.Std(),
				BackoffFactor: tun.TTS.BackoffFactor,
				MaxDelay:      tun.TTS.MaxDelay.Std(),
			}),
			Store:              store,
			UseKeywordFallback: *keywordFallback,
			AIEnabled:          capability != nil,
		})

		result, err := orch.Run(ctx, today)
		if err != nil {
			logger.Error("digest run failed", "locale", id, "error", err)
			metrics.Global.SetError(err.Error())
			failed = true
			continue
		}
		logger.Info("digest run finished",
			"locale", result.Locale,
			"regenerated", result.Regenerated,
			"text", result.TextPath,
			"audio", result.AudioPath)
	}

	if failed {
		os.Exit(1)
	}
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
