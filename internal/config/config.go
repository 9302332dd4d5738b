package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env:"LISTEN_BIND_IP" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env:"LISTEN_PORT" env-default:"8080"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
	Host     string `yaml:"host" env:"MONGO_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
	User     string `yaml:"user" env:"MONGO_USER" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"rbreg"`
}

type GateConfig struct {
	// Secret signs the single-use check-in gate pass tokens.
	Secret string `yaml:"secret" env:"GATE_SECRET" env-default:""`
	// PassTTLMinutes bounds how long a redeemed code stays usable.
	PassTTLMinutes int `yaml:"pass_ttl_minutes" env:"GATE_PASS_TTL" env-default:"15"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"false"`
	ApiKey   string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	ChatId   int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID" env-default:"0"`
	LogLevel string `yaml:"log_level" env:"TELEGRAM_LOG_LEVEL" env-default:"ERROR"`
}

type Config struct {
	Listen    Listen         `yaml:"listen"`
	Mongo     MongoConfig    `yaml:"mongo"`
	Gate      GateConfig     `yaml:"gate"`
	Telegram  TelegramConfig `yaml:"telegram"`
	PublicUrl string         `yaml:"public_url" env:"PUBLIC_URL" env-default:"http://localhost:8080"`
	Env       string         `yaml:"env" env:"ENV" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
