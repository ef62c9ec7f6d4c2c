package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env           string `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP          `yaml:"http"`
	DatabaseURL   string `yaml:"database_url" env:"DATABASE_URL" env-required:"true"`
	Cache         `yaml:"cache"`
	JWT           `yaml:"jwt"`
	Admin         `yaml:"admin"`
	Email         `yaml:"email"`
	AMQP          `yaml:"amqp"`
	CloudinaryURL string `yaml:"cloudinary_url" env:"CLOUDINARY_URL"`
	Jobs          `yaml:"jobs"`
}

type HTTP struct {
	Addr         string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	AllowOrigins string        `yaml:"allow_origins" env:"HTTP_ALLOW_ORIGINS" env-default:"*"`
}

type Cache struct {
	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"`
	TTL      time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"60s"`
}

type JWT struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	TTL    time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"24h"`
}

type Admin struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
	FullName string `yaml:"full_name" env:"ADMIN_FULL_NAME" env-default:"Gym Administrator"`
}

type Email struct {
	BrevoAPIKey string        `yaml:"brevo_api_key" env:"BREVO_API_KEY"`
	SenderEmail string        `yaml:"sender_email" env:"EMAIL_SENDER"`
	SenderName  string        `yaml:"sender_name" env:"EMAIL_SENDER_NAME"`
	Attempts    uint          `yaml:"attempts" env:"EMAIL_RETRY_ATTEMPTS" env-default:"3"`
	Delay       time.Duration `yaml:"delay" env:"EMAIL_RETRY_DELAY" env-default:"500ms"`
}

type AMQP struct {
	URL      string `yaml:"url" env:"AMQP_URL"`
	Exchange string `yaml:"exchange" env:"AMQP_EXCHANGE" env-default:"gym.events"`
}

type Jobs struct {
	ReminderSpec   string `yaml:"reminder_spec" env:"JOB_REMINDER_SPEC" env-default:"*/30 * * * *"`
	PassExpirySpec string `yaml:"pass_expiry_spec" env:"JOB_PASS_EXPIRY_SPEC" env-default:"0 * * * *"`
	AttendanceSpec string `yaml:"attendance_spec" env:"JOB_ATTENDANCE_SPEC" env-default:"*/15 * * * *"`
}

// Load reads CONFIG_PATH when it is set and falls back to the environment.
func Load() (Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}

func MustLoad() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("🔥 Error loading config: %v", err)
	}
	return cfg
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
