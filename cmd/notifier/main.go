package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/rmonteiro-pa/ciap-agenda/internal/logger"
	"github.com/rmonteiro-pa/ciap-agenda/internal/rabbit"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/notifier_config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	var bot *tgbotapi.BotAPI
	if config.Telegram.Token != "" {
		bot, err = tgbotapi.NewBotAPI(config.Telegram.Token)
		if err != nil {
			log.Errorf("telegram unavailable, falling back to link logging: %v", err)
			bot = nil
		}
	}

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer r.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	err = r.Consume(ctx, func(msg amqp.Delivery) {
		m := rabbit.Message{}
		if err := json.Unmarshal(msg.Body, &m); err != nil {
			log.Errorf("failed to parse message: %s", err)
			return
		}
		deliver(bot, config.Telegram.ChatID, m)
	})
	if err != nil {
		log.Errorf("consumer stopped: %v", err)
	}
}

// deliver is fire and forget: a send failure is logged, never retried.
func deliver(bot *tgbotapi.BotAPI, chatID int64, m rabbit.Message) {
	log.Infof("delivering notification for %q (%s)", m.Title, m.ID)
	if bot == nil || chatID == 0 {
		log.Infof("share link: %s", m.Link)
		return
	}
	msg := tgbotapi.NewMessage(chatID, m.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		log.Errorf("failed to send notification %q: %v", m.ID, err)
	}
}
