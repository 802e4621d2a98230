package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Redis        Redis
	Storage      Storage
	Scoring      Scoring
	Notification Notification
	Pipeline     Pipeline
	GeminiApiKey string
	Sendgrid     Sendgrid
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Redis struct {
	Addr            string
	Password        string
	DB              int
	SubmissionQueue string
}

type Storage struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type Scoring struct {
	ConfidenceThreshold float64
	Model               string
}

type Notification struct {
	MaxRetryAttempts  int
	RetryDelaySeconds int
	SweepSeconds      int
}

type Pipeline struct {
	Workers int
}

type Sendgrid struct {
	ApiKey    string
	FromName  string
	FromEmail string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	viper.SetDefault("SCORING_CONFIDENCE_THRESHOLD", 0.85)
	viper.SetDefault("SCORING_MODEL", "gemini-1.5-flash")
	viper.SetDefault("NOTIFICATION_MAX_RETRY_ATTEMPTS", 3)
	viper.SetDefault("NOTIFICATION_RETRY_DELAY_SECONDS", 60)
	viper.SetDefault("NOTIFICATION_SWEEP_SECONDS", 60)
	viper.SetDefault("PIPELINE_WORKERS", 4)
	viper.SetDefault("REDIS_SUBMISSION_QUEUE", "markhor:submissions")

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.SubmissionQueue = viper.GetString("REDIS_SUBMISSION_QUEUE")

	config.Storage.Endpoint = viper.GetString("S3_ENDPOINT")
	config.Storage.Region = viper.GetString("S3_REGION")
	config.Storage.Bucket = viper.GetString("S3_BUCKET")
	config.Storage.AccessKey = viper.GetString("S3_ACCESS_KEY")
	config.Storage.SecretKey = viper.GetString("S3_SECRET_KEY")
	config.Storage.UseSSL = viper.GetBool("S3_USE_SSL")

	config.Scoring.ConfidenceThreshold = viper.GetFloat64("SCORING_CONFIDENCE_THRESHOLD")
	config.Scoring.Model = viper.GetString("SCORING_MODEL")

	config.Notification.MaxRetryAttempts = viper.GetInt("NOTIFICATION_MAX_RETRY_ATTEMPTS")
	config.Notification.RetryDelaySeconds = viper.GetInt("NOTIFICATION_RETRY_DELAY_SECONDS")
	config.Notification.SweepSeconds = viper.GetInt("NOTIFICATION_SWEEP_SECONDS")

	config.Pipeline.Workers = viper.GetInt("PIPELINE_WORKERS")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")

	config.Sendgrid.ApiKey = viper.GetString("SENDGRID_API_KEY")
	config.Sendgrid.FromName = viper.GetString("SENDGRID_FROM_NAME")
	config.Sendgrid.FromEmail = viper.GetString("SENDGRID_FROM_EMAIL")

	log.Info().Str("port", config.Server.Port).Str("db", config.Database.Name).Msg("Config loaded")
	return &config, nil
}
