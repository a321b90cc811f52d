package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostel-ledger-bot/internal/config"
	"hostel-ledger-bot/internal/database"
	"hostel-ledger-bot/internal/handlers"
	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
)

// jobTimeout bounds one run of a scheduled job.
const jobTimeout = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logFile, err := logger.Setup(cfg.LogDir)
	if err != nil {
		log.Printf("Logging to stdout only: %v", err)
	} else {
		defer logFile.Close()
	}

	// Initialize database
	ctx := context.Background()
	db, err := database.New(ctx, cfg.MongoURI, cfg.MongoDB, cfg.UseTransactions)
	if err != nil {
		log.Fatal("Failed to initialize MongoDB: ", err)
	}
	defer db.Close(ctx)

	// Create Telegram bot
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal("Failed to create Telegram bot: ", err)
	}

	bot.Debug = false
	logger.Info("Bot started: %s", bot.Self.UserName)

	// Set up handlers
	engine := ledger.New(db)
	commandHandler := handlers.NewCommandHandler(engine, cfg, notify.NewTelegram(bot))
	eventHandler := handlers.NewEventHandler(engine, cfg, commandHandler)

	// Set up cron jobs for reconciliation and reminders
	c := cron.New(cron.WithLogger(cron.PrintfLogger(log.Default())))
	_, err = c.AddFunc(cfg.ReconcileSchedule, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := commandHandler.RunReconcile(jobCtx, cfg.AdminIDs); err != nil {
			logger.Error("Reconciliation failed: %v", err)
		}
	})
	if err != nil {
		log.Fatal("Failed to add reconciliation job: ", err)
	}
	_, err = c.AddFunc(cfg.ReminderSchedule, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := commandHandler.SendReminders(jobCtx); err != nil {
			logger.Error("Pending reminders failed: %v", err)
		}
	})
	if err != nil {
		log.Fatal("Failed to add reminder job: ", err)
	}
	c.Start()
	defer c.Stop()

	fmt.Println("Bot is running...")

	// Start listening for updates
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	// Handle updates
	go func() {
		for update := range updates {
			if update.Message != nil {
				eventHandler.HandleMessage(bot, update.Message)
			} else if update.CallbackQuery != nil {
				eventHandler.HandleCallbackQuery(bot, update.CallbackQuery)
			}
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	fmt.Println("Shutting down bot...")
	bot.StopReceivingUpdates()
}
