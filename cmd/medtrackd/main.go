package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"medtrack/internal/api"
	"medtrack/internal/clock"
	"medtrack/internal/config"
	"medtrack/internal/notify"
	"medtrack/internal/reset"
	"medtrack/internal/service"
	"medtrack/internal/store"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "status":
			handleStatusCommand()
			return
		case "help", "--help", "-h":
			printExtendedHelp()
			return
		case "version", "--version", "-v":
			fmt.Printf("medtrackd version %s\n", version)
			return
		}
	}

	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting medtrackd", zap.String("version", version))

	config.LoadEnvFiles()

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	st, err := store.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	sender := buildSender(cfg, logger)

	backend := notify.NewCronBackend(sender, logger)
	backend.Start()

	svc := service.New(st, backend, clock.System{}, logger, cfg.Reminders.DefaultDelayMinutes)

	if err := svc.ResyncNotifications(); err != nil {
		logger.Error("Failed to arm reminders at startup", zap.Error(err))
	}

	coordinator := reset.New(svc, clock.System{}, logger)
	if err := coordinator.Start(); err != nil {
		logger.Fatal("Failed to start rollover coordinator", zap.Error(err))
	}

	server := api.New(cfg, svc, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("address", cfg.Server.Address),
		zap.Int("port", cfg.Server.Port),
		zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port)),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	coordinator.Stop()
	backend.Stop()

	if err := server.Shutdown(); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
}

func buildSender(cfg *config.Config, logger *zap.Logger) notify.Sender {
	if cfg.Notifications.Telegram.Enabled {
		sender, err := notify.NewTelegramSender(notify.TelegramConfig{
			Enabled:  true,
			BotToken: cfg.Notifications.Telegram.BotToken,
			ChatIDs:  cfg.Notifications.Telegram.ChatIDs,
		}, logger)
		if err != nil {
			logger.Error("Failed to create Telegram sender, falling back to log delivery", zap.Error(err))
		} else {
			logger.Info("Telegram reminder delivery enabled",
				zap.Int("chats", len(cfg.Notifications.Telegram.ChatIDs)))
			return sender
		}
	}
	return &notify.LogSender{Logger: logger}
}

func handleStatusCommand() {
	cfg, err := config.Load("", "")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("medtrackd Status")
	fmt.Println("================")
	fmt.Println()
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Data:    %s\n", cfg.Storage.DataDir)
	fmt.Println()
	fmt.Println("Server Configuration:")
	fmt.Printf("  Address: %s:%d\n", cfg.Server.Address, cfg.Server.Port)
	fmt.Printf("  URL: http://localhost:%d\n", cfg.Server.Port)
	fmt.Println()
	fmt.Println("Reminders:")
	fmt.Printf("  Default delay: %d minutes\n", cfg.Reminders.DefaultDelayMinutes)
	fmt.Printf("  Telegram: %s\n", channelStatus(cfg.Notifications.Telegram.Enabled))
	if cfg.Notifications.Telegram.Enabled {
		fmt.Printf("  Bot Token: %s\n", maskToken(cfg.Notifications.Telegram.BotToken))
		fmt.Printf("  Chats: %d\n", len(cfg.Notifications.Telegram.ChatIDs))
	}
}

func channelStatus(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func maskToken(token string) string {
	if len(token) < 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func printExtendedHelp() {
	fmt.Println("medtrackd - Medication tracking daemon")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  medtrackd                 Run the daemon")
	fmt.Println("  medtrackd status          Show current configuration")
	fmt.Println("  medtrackd version         Show version")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --config <path>           Path to config file")
	fmt.Println("  --data <path>             Path to data directory")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  MEDTRACK_SERVER_PORT                          HTTP port")
	fmt.Println("  MEDTRACK_SECURITY_JWT_SECRET                  API token secret")
	fmt.Println("  MEDTRACK_NOTIFICATIONS_TELEGRAM_BOT_TOKEN     Telegram bot token")
	fmt.Println("  MEDTRACK_NOTIFICATIONS_TELEGRAM_CHAT_IDS      Comma-separated chat IDs")
}
