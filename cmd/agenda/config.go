package main

import (
	"fmt"
	"strings"

	"github.com/rmonteiro-pa/ciap-agenda/internal/logger"
	"github.com/rmonteiro-pa/ciap-agenda/internal/rabbit"
	"github.com/rmonteiro-pa/ciap-agenda/internal/scheduler"
	internalhttp "github.com/rmonteiro-pa/ciap-agenda/internal/server/http"
	"github.com/rmonteiro-pa/ciap-agenda/internal/smartadd"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storagebuilder"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

type Config struct {
	Server    internalhttp.Config
	Logger    logger.Config
	Storage   storagebuilder.Config
	Rabbit    rabbit.Config
	Scheduler scheduler.Config
	Gemini    smartadd.GeminiConfig
	// DigestSchedule is the cron expression of the morning agenda digest.
	DigestSchedule string
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	viper.SetConfigFile(configFile)

	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", "8005")
	viper.SetDefault("logger.level", "WARN")
	viper.SetDefault("storage.storageType", "memory")
	viper.SetDefault("storage.snapshotPath", "./agenda_snapshot.json")
	viper.SetDefault("rabbit.host", "127.0.0.1")
	viper.SetDefault("rabbit.port", "5672")
	viper.SetDefault("rabbit.user", "user")
	viper.SetDefault("rabbit.password", "pass")
	viper.SetDefault("rabbit.queue", "agenda.notify")
	viper.SetDefault("scheduler.intervalSeconds", "15")
	viper.SetDefault("gemini.apiKey", "$env:GEMINI_API_KEY")
	viper.SetDefault("digestSchedule", "0 7 * * *")

	err := viper.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := viper.AllKeys()
	for _, key := range keys {
		env := viper.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			err := viper.BindEnv(key, env[len(envConfigPrefix):])
			if err != nil {
				return config, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}
