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

	"github.com/mwieland/terminus/internal/database"
	"github.com/mwieland/terminus/internal/event"
	"github.com/mwieland/terminus/internal/logging"
	"github.com/mwieland/terminus/internal/model"
	"github.com/mwieland/terminus/internal/notify"
	"github.com/mwieland/terminus/internal/reminder"
	"github.com/mwieland/terminus/internal/server"
	"github.com/mwieland/terminus/internal/storage"
	ws "github.com/mwieland/terminus/internal/websocket"
)

func main() {
	port := os.Getenv("TERMINUS_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("TERMINUS_DB_PATH")
	if dbPath == "" {
		dbPath = "terminus.db"
	}

	logger := logging.Setup(os.Getenv("TERMINUS_LOG_LEVEL"))

	// A broken database is not fatal: the app degrades to a memory-only
	// store that forgets everything on exit.
	var gw *storage.Gateway
	var pushStore *storage.PushStore
	db, err := database.Open(dbPath)
	if err != nil {
		logger.Warn("failed to open database", "path", dbPath, "error", err)
		gw = storage.NewUnavailable(logger.With("component", "storage"))
	} else {
		defer db.Close()
		gw = storage.NewGateway(db, logger.With("component", "storage"))
		pushStore = storage.NewPushStore(db)
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	events := event.NewStore(gw, logger.With("component", "events"))

	vapidPublic := os.Getenv("TERMINUS_VAPID_PUBLIC_KEY")
	vapidPrivate := os.Getenv("TERMINUS_VAPID_PRIVATE_KEY")
	if vapidPublic == "" || vapidPrivate == "" {
		logger.Info("no VAPID keys configured; reminders fall back to in-app alerts")
	}

	fallback := notify.FallbackFunc(func(title, body string) {
		hub.Broadcast(ws.NewMessage("alert", "fired", "", map[string]any{
			"title": title,
			"body":  body,
		}))
	})

	var subs notify.SubscriptionSource
	if pushStore != nil {
		subs = pushStore
	}
	notifier := notify.NewService(subs, fallback, vapidPublic, vapidPrivate, logger.With("component", "push"))

	engine := reminder.NewEngine(events, gw, notifier, logger.With("component", "reminders"))
	// Mirror every firing to open tabs so they refresh, whatever the
	// push delivery outcome was.
	engine.OnFired(func(ev model.Event) {
		hub.Broadcast(ws.NewMessage("reminder", "fired", ev.ID, map[string]any{
			"title": ev.Title,
		}))
	})
	engine.Start(context.Background())
	defer engine.Stop()

	srv := server.New(events, pushStore, notifier, hub, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Terminus running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
