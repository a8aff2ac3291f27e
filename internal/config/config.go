package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Booking  BookingConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers            []string
	BookingEventsTopic string
	NotificationsTopic string
	GroupID            string
}

type BookingConfig struct {
	// HoldDuration is the window between reservation creation and automatic
	// release of unpaid seats.
	HoldDuration time.Duration
}

type WorkerConfig struct {
	SweepInterval    time.Duration
	ReminderInterval time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	if postgresHost == "" {
		postgresHost = "localhost"
	}

	postgresPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
	if postgresSSLMode == "" {
		postgresSSLMode = "disable"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	brokers := strings.Split(os.Getenv("KAFKA_BROKERS"), ",")
	if len(brokers) == 1 && brokers[0] == "" {
		brokers = []string{"localhost:9092"}
	}

	eventsTopic := os.Getenv("KAFKA_BOOKING_EVENTS_TOPIC")
	if eventsTopic == "" {
		eventsTopic = "booking-events"
	}

	notificationsTopic := os.Getenv("KAFKA_NOTIFICATIONS_TOPIC")
	if notificationsTopic == "" {
		notificationsTopic = "booking-notifications"
	}

	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = "flightbooker-worker"
	}

	holdMinutes, err := intEnv("HOLD_MINUTES", 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sweepSeconds, err := intEnv("SWEEP_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reminderMinutes, err := intEnv("REMINDER_INTERVAL_MINUTES", 60)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server: ServerConfig{
			Host: serverHost,
			Port: serverPort,
		},
		Postgres: PostgresConfig{
			User:     postgresUser,
			Password: postgresPassword,
			Name:     postgresDB,
			Host:     postgresHost,
			Port:     postgresPort,
			SSLMode:  postgresSSLMode,
		},
		Redis: RedisConfig{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Kafka: KafkaConfig{
			Brokers:            brokers,
			BookingEventsTopic: eventsTopic,
			NotificationsTopic: notificationsTopic,
			GroupID:            groupID,
		},
		Booking: BookingConfig{
			HoldDuration: time.Duration(holdMinutes) * time.Minute,
		},
		Worker: WorkerConfig{
			SweepInterval:    time.Duration(sweepSeconds) * time.Second,
			ReminderInterval: time.Duration(reminderMinutes) * time.Minute,
		},
	}, nil
}

func intEnv(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	return v, nil
}
