package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pathakanu/careMemo/internal/api"
	"github.com/pathakanu/careMemo/internal/app"
	"github.com/pathakanu/careMemo/internal/bot"
	"github.com/pathakanu/careMemo/internal/config"
	"github.com/pathakanu/careMemo/internal/notify"
	myopenai "github.com/pathakanu/careMemo/internal/openai"
	"github.com/pathakanu/careMemo/internal/storage"
	"github.com/pathakanu/careMemo/internal/store"
	"github.com/pathakanu/careMemo/internal/twilio"
)

func main() {
	logger := log.New(os.Stdout, "[careMemo] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slot, err := storage.Open(cfg)
	if err != nil {
		logger.Fatalf("storage init failed: %v", err)
	}
	if fileSlot, ok := slot.(*storage.FileSlot); ok {
		err := fileSlot.Watch(ctx, store.SnapshotKey, func() {
			logger.Printf("warning: %s was changed by another writer; it will be overwritten on the next change", fileSlot.Path(store.SnapshotKey))
		})
		if err != nil {
			logger.Printf("snapshot watch disabled: %v", err)
		}
	}

	reminderStore, err := store.Open(ctx, slot, store.Options{Logger: logger})
	if err != nil {
		logger.Fatalf("store init failed: %v", err)
	}

	twilioClient := twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, cfg.NotifyWhatsAppTo, logger)
	var deliverer notify.Deliverer = notify.LogDeliverer{Logger: logger}
	if twilioClient.Configured() {
		deliverer = twilioClient
	} else {
		logger.Printf("twilio not configured, notifications are only logged")
	}

	notifications := notify.NewLocal(deliverer, cfg.LocalTimezone, logger)
	notifications.Start()

	scheduler := notify.NewScheduler(notifications, notify.Options{
		RolloverPast: cfg.RolloverPastTriggers,
		SmallIcon:    cfg.NotificationIcon,
		IconColor:    cfg.NotificationColor,
		Location:     cfg.LocalTimezone,
		Logger:       logger,
	})

	reminders := app.New(reminderStore, scheduler, app.LogFeedback{Logger: logger}, logger)
	logger.Printf("loaded %d reminders, %d notifications pending today", len(reminders.Reminders()), reminders.Restore(ctx))

	openAIClient := myopenai.New(cfg.OpenAIAPIKey)
	reminderBot := bot.New(reminders, openAIClient, cfg.BotOwner, logger)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.Options{
			App:     reminders,
			Logger:  logger,
			Webhook: reminderBot.Handler(),
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Printf("server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(server, notifications, logger)
}

func waitForShutdown(server *http.Server, notifications *notify.Local, logger *log.Logger) {
	stopCtx := make(chan os.Signal, 1)
	signal.Notify(stopCtx, syscall.SIGINT, syscall.SIGTERM)
	<-stopCtx
	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	notifications.Stop()
}
