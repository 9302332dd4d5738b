package main

import (
	"flag"
	"log/slog"
	"time"

	"rbreg/impl/admission"
	"rbreg/impl/auth"
	"rbreg/impl/checkin"
	"rbreg/impl/core"
	"rbreg/impl/registry"
	"rbreg/internal/bot"
	"rbreg/internal/config"
	"rbreg/internal/database"
	"rbreg/internal/gatepass"
	"rbreg/internal/http-server/api"
	"rbreg/lib/logger"
	"rbreg/lib/sl"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/rbreg.log", "path to log file")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, *logPath)
	log = withTelegram(log, conf)
	log.Info("starting rbreg", slog.String("config", *configPath), slog.String("env", conf.Env))

	var db database.Store
	if mongo := database.NewMongoClient(conf); mongo != nil {
		db = mongo
		log.Info("using mongo store", slog.String("database", conf.Mongo.Database))
	} else {
		db = database.NewMemory()
		log.Warn("mongo disabled, using in-memory store")
	}

	reg := registry.New(db, log)
	adm := admission.New(db, log)
	ci := checkin.New(db, log)
	au := auth.New(db, reg, log)
	gate := gatepass.New(conf.Gate.Secret, time.Duration(conf.Gate.PassTTLMinutes)*time.Minute)

	handler := core.New(reg, adm, ci, au, gate, conf.PublicUrl, log)

	if err := api.New(conf, log, handler); err != nil {
		log.Error("api server stopped", sl.Err(err))
	}
}

// withTelegram mirrors error records to a Telegram chat when configured.
func withTelegram(log *slog.Logger, conf *config.Config) *slog.Logger {
	if !conf.Telegram.Enabled {
		return log
	}
	tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.ChatId, log)
	if err != nil {
		log.Error("telegram bot init", sl.Err(err))
		return log
	}
	var level slog.Level
	if err = level.UnmarshalText([]byte(conf.Telegram.LogLevel)); err != nil {
		level = slog.LevelError
	}
	return slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, level))
}
