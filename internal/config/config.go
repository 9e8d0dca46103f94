package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vetdesk/service-reservation/internal/domain/reservation"
	"github.com/vetdesk/service-reservation/internal/platform/database"
)

// KafkaConfig holds broker connection settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// ScheduleConfig holds the booking-window settings.
type ScheduleConfig struct {
	StartHour     int
	EndHour       int
	SlotMinutes   int
	CapacityScope reservation.CapacityScope
}

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	Port     string
	AppEnv   string
	DB       database.PostgresConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Schedule ScheduleConfig
}

// Load reads configuration from RESERVATION_-prefixed environment variables
// with development defaults.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("RESERVATION")
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8083")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "reservations")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "service-reservation")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_EXPIRY", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRY", "168h")

	v.SetDefault("SCHEDULE_START_HOUR", reservation.DefaultStartHour)
	v.SetDefault("SCHEDULE_END_HOUR", reservation.DefaultEndHour)
	v.SetDefault("SCHEDULE_SLOT_MINUTES", reservation.DefaultSlotMinutes)
	v.SetDefault("SCHEDULE_CAPACITY_SCOPE", string(reservation.CapacityGlobal))

	cfg := &ServiceConfig{
		Port:   v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DB: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Kafka: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  v.GetDuration("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: v.GetDuration("JWT_REFRESH_EXPIRY"),
		},
		Schedule: ScheduleConfig{
			StartHour:     v.GetInt("SCHEDULE_START_HOUR"),
			EndHour:       v.GetInt("SCHEDULE_END_HOUR"),
			SlotMinutes:   v.GetInt("SCHEDULE_SLOT_MINUTES"),
			CapacityScope: reservation.CapacityScope(v.GetString("SCHEDULE_CAPACITY_SCOPE")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	if c.AppEnv == "production" && c.JWT.Secret == "" {
		return fmt.Errorf("RESERVATION_JWT_SECRET is required in production")
	}
	hours := reservation.BusinessHours{StartHour: c.Schedule.StartHour, EndHour: c.Schedule.EndHour}
	if err := hours.Validate(); err != nil {
		return err
	}
	if c.Schedule.SlotMinutes <= 0 {
		return fmt.Errorf("invalid slot duration: %d minutes", c.Schedule.SlotMinutes)
	}
	if !c.Schedule.CapacityScope.IsValid() {
		return fmt.Errorf("invalid capacity scope: %s", c.Schedule.CapacityScope)
	}
	return nil
}
