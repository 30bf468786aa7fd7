/**
 * @description
 * This file handles configuration management for the banking API.
 * It uses the Viper library to read settings from environment variables or a .env file.
 *
 * @dependencies
 * - github.com/spf13/viper: For configuration management.
 */
package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	AlertQueueName string `mapstructure:"ALERT_QUEUE_NAME"`

	RedisURL                   string `mapstructure:"REDIS_URL"`
	TransferRateLimitPerMinute int    `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`

	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTExpiryHours int    `mapstructure:"JWT_EXPIRY_HOURS"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "trustyfin")
	viper.SetDefault("ALERT_QUEUE_NAME", "transaction_alerts")
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("SMTP_PORT", 587)

	// Bind envs explicitly so containers pick them up reliably
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("MONGO_URI")
	_ = viper.BindEnv("MONGO_DATABASE")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("ALERT_QUEUE_NAME")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("JWT_EXPIRY_HOURS")
	_ = viper.BindEnv("SMTP_HOST")
	_ = viper.BindEnv("SMTP_PORT")
	_ = viper.BindEnv("SMTP_USERNAME")
	_ = viper.BindEnv("SMTP_PASSWORD")
	_ = viper.BindEnv("SMTP_FROM")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Error reading config file: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
