// kadiya — cost-first LLM request dispatcher daemon.
// Entry point: wires all packages and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thaaaru/kadiya/internal/api"
	"github.com/thaaaru/kadiya/internal/config"
	"github.com/thaaaru/kadiya/internal/db"
	"github.com/thaaaru/kadiya/internal/dispatch"
	"github.com/thaaaru/kadiya/internal/memory"
	"github.com/thaaaru/kadiya/internal/notify"
	"github.com/thaaaru/kadiya/internal/provider"
	"github.com/thaaaru/kadiya/internal/router"
	"github.com/thaaaru/kadiya/internal/scheduler"
	"github.com/thaaaru/kadiya/internal/telegram"
	"github.com/thaaaru/kadiya/internal/updater"
	"github.com/thaaaru/kadiya/internal/usage"
	"github.com/thaaaru/kadiya/internal/webhook"
	"github.com/thaaaru/kadiya/internal/ws"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	log.Printf("kadiya %s starting…", Version)

	// ── 1. Load configuration + profile ──────────────────────────────────────
	cfg := config.Load()
	log.Printf("Config: port=%s workDir=%s profile=%s", cfg.Port, cfg.WorkDir, cfg.ProfileName)

	if cfg.ProviderAPIKey == "" {
		log.Println("⚠  KADIYA_API_KEY not set — provider calls will fail until configured")
	}

	// ── 2. Ensure work directory exists ──────────────────────────────────────
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		log.Fatalf("MkdirAll %s: %v", cfg.WorkDir, err)
	}

	// ── 3. Open database + migrate ───────────────────────────────────────────
	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db.New: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("db.Migrate: %v", err)
	}
	log.Printf("Database ready: %s", cfg.DBPath)

	// Root context — cancelled on shutdown signal.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── 4. Memory store + usage tracker ──────────────────────────────────────
	store := memory.New(database)
	tracker := usage.NewTracker()

	// ── 5. WebSocket hub ─────────────────────────────────────────────────────
	hub := ws.NewHub()
	go hub.Run(ctx)

	// ── 6. Provider transport + dispatcher ───────────────────────────────────
	transport := provider.NewOpenAIClient(cfg.ProviderAPIKey, cfg.ProviderAPIBase)
	dispatcher := dispatch.New(transport, cfg.Profile, tracker, hubEvents{hub})

	// ── 7. Telegram bot ──────────────────────────────────────────────────────
	cmdHandler := telegram.NewCommandHandler(store, dispatcher, Version)
	bot, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID, cmdHandler)
	if err != nil {
		log.Printf("Telegram init error (continuing without Telegram): %v", err)
	}
	if bot != nil {
		go bot.Start(ctx)
		log.Printf("Telegram bot started (chatID=%d)", cfg.TelegramChatID)
	}

	// ── 8. Notifier + reminder scheduler ─────────────────────────────────────
	webhookDispatcher := webhook.New(cfg.WebhookURL)
	notifier := notify.New(telegramSender(bot), webhookDispatcher)
	schedEngine := scheduler.New(store, notifier, tracker, hub)
	if err := schedEngine.Start(ctx); err != nil {
		log.Printf("scheduler.Start: %v", err)
	}

	// ── 9. Update check (best-effort, non-blocking) ──────────────────────────
	go func() {
		res := updater.CheckForUpdates(Version)
		if res == nil || !res.UpdateAvailable {
			return
		}
		log.Printf("Update available: %s → %s (%s)", res.CurrentVersion, res.LatestVersion, res.ReleaseURL)
		// Notify once per release, not on every restart.
		if database.GetSetting("last_update_notified", "") != res.LatestVersion {
			notifier.Send(fmt.Sprintf("⬆️ kadiya %s is available: %s", res.LatestVersion, res.ReleaseURL))
			if err := database.SetSetting("last_update_notified", res.LatestVersion); err != nil {
				log.Printf("SetSetting: %v", err)
			}
		}
	}()

	// ── 10. HTTP router ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	api.SetupRoutes(mux, &api.Deps{
		Config:     cfg,
		Dispatcher: dispatcher,
		Store:      store,
		Hub:        hub,
		Version:    Version,
	})

	// WebSocket endpoint.
	mux.HandleFunc("GET /ws", hub.ServeWS)

	// Recovery + logging middleware.
	handler := loggingMiddleware(recoveryMiddleware(mux))

	// ── 11. Start HTTP server ────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received %s — shutting down…", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("kadiya listening on http://0.0.0.0:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe: %v", err)
	}
	log.Printf("kadiya stopped.")
}

// hubEvents bridges dispatch events onto the WebSocket hub.
type hubEvents struct {
	hub *ws.Hub
}

func (e hubEvents) RoutingDecided(intent string, d router.Decision, effectiveMaxTokens int) {
	e.hub.Broadcast(ws.TypeRouting, map[string]interface{}{
		"intent":     intent,
		"tier":       d.Tier,
		"model":      d.Model,
		"max_tokens": effectiveMaxTokens,
		"reason":     d.Reason,
	})
}

func (e hubEvents) UsageRecorded(m usage.Metrics) {
	e.hub.Broadcast(ws.TypeUsage, m)
}

// telegramSender wraps *telegram.Bot to implement notify.Sender.
// Returns nil if bot is nil (Telegram disabled).
func telegramSender(bot *telegram.Bot) notify.Sender {
	if bot == nil {
		return nil
	}
	return bot
}

// loggingMiddleware logs each request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				log.Printf("panic: %v", rv)
				http.Error(w, `{"success":false,"error":"internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
