package config

import (
	"time"

	"github.com/joho/godotenv"

	"pos_tracker_backend/pkg/utils"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Wizard   WizardConfig
}

type ServerConfig struct {
	Port               string
	GinMode            string
	CORSAllowedOrigins []string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// AuthConfig: AdminUsername/AdminPassword seed the first account when the users table is empty.
type AuthConfig struct {
	AdminUsername      string
	AdminPassword      string
	LoginRatePerMinute int
	LoginBurst         int
}

// RedisConfig: an empty Addr selects the in-process cache and session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig: no brokers means order events are only written to the log.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type WizardConfig struct {
	DraftTTL time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.LogDebug("No .env file loaded", map[string]interface{}{"reason": err.Error()})
	}

	return &Config{
		Server: ServerConfig{
			Port:               utils.Getenv("PORT", "8080"),
			GinMode:            utils.Getenv("GIN_MODE", "debug"),
			CORSAllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
		},
		Logger: LoggerConfig{
			Level:  utils.Getenv("LOG_LEVEL", "info"),
			Format: utils.Getenv("LOG_FORMAT", "console"),
		},
		Postgres: PostgresConfig{
			Host:            utils.Getenv("DB_HOST", "localhost"),
			Port:            utils.Getenv("DB_PORT", "5432"),
			User:            utils.Getenv("DB_USER", "pos_tracker"),
			Password:        utils.Getenv("DB_PASSWORD", "pos_tracker"),
			DBName:          utils.Getenv("DB_NAME", "pos_tracker"),
			SSLMode:         utils.Getenv("DB_SSLMODE", "disable"),
			MaxOpenConns:    utils.GetenvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    utils.GetenvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: utils.GetenvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			RunMigrations:   utils.GetenvBool("DB_RUN_MIGRATIONS", true),
		},
		JWT: JWTConfig{
			Secret: utils.Getenv("JWT_SECRET", ""),
			TTL:    utils.GetenvDuration("JWT_TTL", 12*time.Hour),
		},
		Auth: AuthConfig{
			AdminUsername:      utils.Getenv("ADMIN_USERNAME", "admin"),
			AdminPassword:      utils.Getenv("ADMIN_PASSWORD", ""),
			LoginRatePerMinute: utils.GetenvInt("LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:         utils.GetenvInt("LOGIN_BURST", 5),
		},
		Redis: RedisConfig{
			Addr:     utils.Getenv("REDIS_ADDR", ""),
			Password: utils.Getenv("REDIS_PASSWORD", ""),
			DB:       utils.GetenvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: utils.GetenvList("KAFKA_BROKERS", nil),
			Topic:   utils.Getenv("KAFKA_ORDER_TOPIC", "order-events"),
		},
		Wizard: WizardConfig{
			DraftTTL: utils.GetenvDuration("REGISTRATION_DRAFT_TTL", 24*time.Hour),
		},
	}
}
