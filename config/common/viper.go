package common

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/viper"
)

type Config struct {
	Viper *viper.Viper
}

func NewViper() *Config {
	config := viper.New()
	setDefaults(config)
	config.SetConfigFile(".env")
	config.SetConfigType("env")
	config.AutomaticEnv()

	log.Trace("Checking file .env ....")
	if err := config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			panic("failed read config")
		}
		log.Info("No .env file found, reading configuration from environment")
	}
	return &Config{Viper: config}
}

// NewConfig wraps an already populated viper instance, mainly for tests.
func NewConfig(v *viper.Viper) *Config {
	setDefaults(v)
	return &Config{Viper: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "festival-chat-api")
	v.SetDefault("APP_PORT", "7720")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("CORS_ORIGINS", "http://localhost:8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_PATH", "festival-chat.db")
	v.SetDefault("DB_TIMEOUT", "5s")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("CHAT_LISTING_POLICY", "open")
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("RATE_LIMIT_AUTH", 50)
	v.SetDefault("RATE_LIMIT_GENERAL", 300)
	v.SetDefault("RATE_LIMIT_MESSAGE", 200)
	v.SetDefault("NATS_SUBJECT_PREFIX", "festchat")
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("LEGACY_MONGO_DB", "festiechat")
}

func (c *Config) GetAppConfig() (appName string) {
	return c.Viper.GetString("APP_NAME")
}

func (c *Config) GetPort() string {
	return c.Viper.GetString("APP_PORT")
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Viper.GetString("APP_ENV"), "development")
}

func (c *Config) GetCorsOrigins() string {
	return c.Viper.GetString("CORS_ORIGINS")
}

func (c *Config) GetDatabaseDriver() string {
	return strings.ToLower(c.Viper.GetString("DB_DRIVER"))
}

func (c *Config) GetDatabaseConfig() (dbHost, dbUser, dbPassword, dbName, dbPort string) {
	dbHost = c.Viper.GetString("DB_HOSTNAME")
	dbUser = c.Viper.GetString("DB_USER")
	dbPassword = c.Viper.GetString("DB_PASSWORD")
	dbName = c.Viper.GetString("DB_NAME")
	dbPort = c.Viper.GetString("DB_PORT")

	return dbHost, dbUser, dbPassword, dbName, dbPort
}

func (c *Config) GetDatabasePath() string {
	return c.Viper.GetString("DB_PATH")
}

func (c *Config) GetDatabaseTimeout() time.Duration {
	return c.Viper.GetDuration("DB_TIMEOUT")
}

func (c *Config) GetJwtConfig() []byte {
	jwtSecret := c.Viper.GetString("JWT_SECRET")
	return []byte(jwtSecret)
}

// GetJwtRefreshConfig falls back to JWT_SECRET when no dedicated refresh secret is set.
func (c *Config) GetJwtRefreshConfig() []byte {
	if secret := c.Viper.GetString("JWT_REFRESH_SECRET"); secret != "" {
		return []byte(secret)
	}
	return c.GetJwtConfig()
}

func (c *Config) GetTokenTTL() (access, refresh time.Duration) {
	return c.Viper.GetDuration("JWT_ACCESS_TTL"), c.Viper.GetDuration("JWT_REFRESH_TTL")
}

func (c *Config) GetBcryptCost() int {
	return c.Viper.GetInt("BCRYPT_COST")
}

func (c *Config) GetBootstrapAdminEmail() string {
	return c.Viper.GetString("BOOTSTRAP_ADMIN_EMAIL")
}

func (c *Config) GetChatListingPolicy() string {
	return c.Viper.GetString("CHAT_LISTING_POLICY")
}

func (c *Config) GetRateLimitConfig() (window time.Duration, auth, general, message int) {
	return c.Viper.GetDuration("RATE_LIMIT_WINDOW"),
		c.Viper.GetInt("RATE_LIMIT_AUTH"),
		c.Viper.GetInt("RATE_LIMIT_GENERAL"),
		c.Viper.GetInt("RATE_LIMIT_MESSAGE")
}

func (c *Config) GetNatsConfig() (url, subjectPrefix string) {
	return c.Viper.GetString("NATS_URL"), c.Viper.GetString("NATS_SUBJECT_PREFIX")
}

func (c *Config) GetLogDir() string {
	return c.Viper.GetString("LOG_DIR")
}

func (c *Config) GetLegacyMongoConfig() (uri, database string) {
	return c.Viper.GetString("LEGACY_MONGO_URI"), c.Viper.GetString("LEGACY_MONGO_DB")
}
