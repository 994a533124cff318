package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmhodges/clock"
	"github.com/joho/godotenv"
	"github.com/rmonteiro-pa/ciap-agenda/internal/app"
	"github.com/rmonteiro-pa/ciap-agenda/internal/logger"
	"github.com/rmonteiro-pa/ciap-agenda/internal/notify"
	"github.com/rmonteiro-pa/ciap-agenda/internal/rabbit"
	"github.com/rmonteiro-pa/ciap-agenda/internal/scheduler"
	internalhttp "github.com/rmonteiro-pa/ciap-agenda/internal/server/http"
	"github.com/rmonteiro-pa/ciap-agenda/internal/smartadd"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storagebuilder"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/agenda_config.yaml", "Path to configuration file")
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

	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		if err := stor.Close(ctx); err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
	}()

	var publisher app.Publisher
	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("broker unavailable, notifications stay local: %v", err)
	} else {
		publisher = r
		defer r.Close()
	}

	queue := notify.NewQueue()
	pipeline := smartadd.NewPipeline(smartadd.NewGeminiParser(config.Gemini), stor)
	agenda := app.New(stor, queue, pipeline, publisher)
	server := internalhttp.NewServer(config.Server, agenda)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	reminders := scheduler.New(config.Scheduler, stor, queue, clock.New())
	go reminders.Run(ctx)

	digest := cron.New()
	_, err = digest.AddFunc(config.DigestSchedule, func() { publishDigest(ctx, stor, publisher) })
	if err != nil {
		log.Errorf("bad digest schedule %q: %v", config.DigestSchedule, err)
	} else {
		digest.Start()
		defer digest.Stop()
	}

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
	}()

	log.Info("agenda is running...")

	if err := server.Start(ctx); err != nil {
		log.Error("failed to start http server: " + err.Error())
		cancel()
	}
}

func publishDigest(ctx context.Context, stor storage.Storage, publisher app.Publisher) {
	if publisher == nil {
		return
	}
	now := time.Now()
	events, err := stor.GetEventsForDay(ctx, now)
	if err != nil {
		log.Errorf("failed to build digest: %v", err)
		return
	}
	m := rabbit.Message{
		ID:        "digest-" + now.Format("2006-01-02"),
		Title:     "Pauta do dia",
		StartTime: now,
		Text:      notify.BuildDigestText(now, events),
	}
	data, _ := json.Marshal(m)
	if err := publisher.Publish(data); err != nil {
		log.Errorf("failed to publish digest: %v", err)
	}
}
