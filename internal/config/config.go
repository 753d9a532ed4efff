package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Room       Room   `yaml:"room"`
	Client     Client `yaml:"client"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Room - room code settings of the relay.
type Room struct {
	CodeLength   int           `yaml:"code-length" env-default:"6"`
	CodeAttempts int           `yaml:"code-attempts" env-default:"5"`
	TTL          time.Duration `yaml:"ttl" env-default:"24h"`
}

// Client - settings of a player connecting to the relay.
type Client struct {
	ServerAddress  string        `yaml:"server-address" env:"SERVER_ADDRESS" env-default:"localhost:8080"`
	ConnectTimeout time.Duration `yaml:"connect-timeout" env-default:"5s"`
	BotDelay       time.Duration `yaml:"bot-delay" env-default:"500ms"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads the yaml file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
