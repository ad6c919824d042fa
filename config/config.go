package config

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Booking   BookingConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port       string
	Env        string
	LogLevel   string
	CORSOrigin string
}

type DBConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	Issuer       string
	AccessExpiry time.Duration
}

// BookingConfig controls slot generation and the caches around it.
type BookingConfig struct {
	SlotMinutes          int
	Timezone             string
	BookingWindowDays    int
	AvailabilityCacheTTL time.Duration
	SlotLockTTL          time.Duration
}

// Location resolves the booking timezone, falling back to UTC.
func (c BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlotLength returns the slot length as a duration.
func (c BookingConfig) SlotLength() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_AUTO_MIGRATE", false)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("BOOKING_SLOT_MINUTES", 60)
	viper.SetDefault("BOOKING_TIMEZONE", "Europe/Berlin")
	viper.SetDefault("BOOKING_WINDOW_DAYS", 14)
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("RATE_LIMIT_BURST", 10)

	// .env is optional; plain environment variables are enough in containers
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	cacheTTL, err := time.ParseDuration(viper.GetString("AVAILABILITY_CACHE_TTL"))
	if err != nil {
		cacheTTL = 2 * time.Minute
	}

	lockTTL, err := time.ParseDuration(viper.GetString("SLOT_LOCK_TTL"))
	if err != nil {
		lockTTL = 10 * time.Second
	}

	config := &Config{
		App: AppConfig{
			Port:       viper.GetString("APP_PORT"),
			Env:        viper.GetString("APP_ENV"),
			LogLevel:   viper.GetString("LOG_LEVEL"),
			CORSOrigin: viper.GetString("CORS_ALLOWED_ORIGIN"),
		},
		DB: DBConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASSWORD"),
			Name:        viper.GetString("DB_NAME"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			Issuer:       viper.GetString("JWT_ISSUER"),
			AccessExpiry: accessExpiry,
		},
		Booking: BookingConfig{
			SlotMinutes:          viper.GetInt("BOOKING_SLOT_MINUTES"),
			Timezone:             viper.GetString("BOOKING_TIMEZONE"),
			BookingWindowDays:    viper.GetInt("BOOKING_WINDOW_DAYS"),
			AvailabilityCacheTTL: cacheTTL,
			SlotLockTTL:          lockTTL,
		},
		RateLimit: RateLimitConfig{
			PerMinute: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
			Burst:     viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	if config.Booking.SlotMinutes <= 0 {
		config.Booking.SlotMinutes = 60
	}

	return config, nil
}

// DSN builds the postgres connection string used by gorm and the migrator.
func (c DBConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=disable TimeZone=UTC"
}

// URL builds the postgres URL form expected by golang-migrate.
func (c DBConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=disable"
}
