package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	OpenAIKey     string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`

	GeocoderURL string  `mapstructure:"GEOCODER_URL"`
	GeocoderRPS float64 `mapstructure:"GEOCODER_RPS"`

	SMSGatewayURL string `mapstructure:"SMS_GATEWAY_URL"`
	TrackingBase  string `mapstructure:"TRACKING_BASE_URL"`

	AvgSpeedKmh    float64 `mapstructure:"DISPATCH_AVG_SPEED_KMH"`
	MaxRadiusKm    float64 `mapstructure:"DISPATCH_MAX_RADIUS_KM"`
	CandidateLimit int     `mapstructure:"DISPATCH_CANDIDATE_LIMIT"`

	SLACheckInterval time.Duration `mapstructure:"SLA_CHECK_INTERVAL"`
	SLAWarnWindow    time.Duration `mapstructure:"SLA_WARN_WINDOW"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_RPS", 1.0)
	v.SetDefault("TRACKING_BASE_URL", "http://localhost:5173/track")
	v.SetDefault("DISPATCH_AVG_SPEED_KMH", 40.0)
	v.SetDefault("DISPATCH_MAX_RADIUS_KM", 0.0)
	v.SetDefault("DISPATCH_CANDIDATE_LIMIT", 10)
	v.SetDefault("SLA_CHECK_INTERVAL", "5m")
	v.SetDefault("SLA_WARN_WINDOW", "30m")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
