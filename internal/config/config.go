// Package config предоставляет структуры и функцию для загрузки конфига песочницы.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string          `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string          `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string          `yaml:"migrations_path" env-default:"./migrations"`
	HTTPServer              HTTPServer      `yaml:"http_server"`
	RedisConnection         RedisConnection `yaml:"redis_connection"`
	RabbitMQ                RabbitMQ        `yaml:"rabbitmq"`
	JWTToken                JWTToken        `yaml:"jwttoken"`
	Ledger                  Ledger          `yaml:"ledger"`
	Gas                     Gas             `yaml:"gas"`
	Admins                  []AdminAccount  `yaml:"admins"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	Address        string        `yaml:"address" env-default:":8080"`
	Timeout        time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// RedisConnection структура для подключения к redis. Пустой Addr отключает кэш.
type RedisConnection struct {
	Addr        string        `yaml:"addr" env:"REDIS_ADDR"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env-default:"3s"`
}

// RabbitMQ структура для подключения к брокеру. Пустой URL отключает публикацию событий.
type RabbitMQ struct {
	URL     string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries int           `yaml:"retries" env-default:"5"`
	Delay   time.Duration `yaml:"delay" env-default:"2s"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Ledger настраивает жизненный цикл транзакций.
type Ledger struct {
	CompletionDelay      time.Duration `yaml:"completion_delay" env-default:"5s"`
	SweepInterval        time.Duration `yaml:"sweep_interval" env-default:"1s"`
	MinTransactionAmount string        `yaml:"min_transaction_amount" env-default:"5000"`
}

// Gas настраивает адрес получателя комиссии и тарифы комиссии по скорости.
type Gas struct {
	DefaultReceiver string            `yaml:"default_receiver" env:"GAS_DEFAULT_RECEIVER" env-required:"true"`
	Fees            map[string]string `yaml:"fees"`
}

// AdminAccount описывает зарезервированную учётную запись администратора,
// создаваемую при старте.
type AdminAccount struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг из файла, дополняя его переменными окружения.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if len(cfg.Admins) != 2 {
		return nil, fmt.Errorf("config must define exactly two admin accounts, got %d", len(cfg.Admins))
	}
	for _, a := range cfg.Admins {
		if a.Username == "" || a.Password == "" {
			return nil, fmt.Errorf("admin account requires username and password")
		}
	}
	return &cfg, nil
}

// AdminUsernames возвращает имена зарезервированных администраторов.
func (c *Config) AdminUsernames() []string {
	names := make([]string, 0, len(c.Admins))
	for _, a := range c.Admins {
		names = append(names, a.Username)
	}
	return names
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"Redis: %s\n"+
			"RabbitMQ enabled: %t\n"+
			"Ledger:\n"+
			"  CompletionDelay: %s\n"+
			"  SweepInterval: %s\n"+
			"  MinTransactionAmount: %s\n"+
			"Admins: %v\n",
		c.Env,
		c.HTTPServer.Address,
		c.HTTPServer.Timeout,
		c.RedisConnection.Addr,
		c.RabbitMQ.URL != "",
		c.Ledger.CompletionDelay,
		c.Ledger.SweepInterval,
		c.Ledger.MinTransactionAmount,
		c.AdminUsernames(),
	)
}
