package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	OIDC          OIDCConfig
	Events        EventsConfig
	AWS           AWSConfig
	Email         EmailConfig
	AfricaTalking AfricaTalkingConfig
}

// DefaultSecret is the development fallback for SESSION_SECRET and JWT_SECRET.
const DefaultSecret = "change-me"

// MinSecretLength applies to signing secrets in production.
const MinSecretLength = 32

type AppConfig struct {
	Env            string
	Port           string
	SessionSecret  string
	JWTSecret      string
	JWTTTL         time.Duration
	AllowedOrigins []string
	RateLimit      int // requests per minute per client
	RateBurst      int
}

func (c AppConfig) Production() bool {
	return c.Env == "production"
}

// Validate refuses development secrets when running in production.
func (c AppConfig) Validate() error {
	if !c.Production() {
		return nil
	}
	if err := CheckSecret("SESSION_SECRET", c.SessionSecret); err != nil {
		return err
	}
	return CheckSecret("JWT_SECRET", c.JWTSecret)
}

// CheckSecret rejects the development default and secrets shorter than MinSecretLength.
func CheckSecret(name, value string) error {
	if value == "" || value == DefaultSecret {
		return fmt.Errorf("%s is required", name)
	}
	if len(value) < MinSecretLength {
		return fmt.Errorf("%s must be at least %d bytes", name, MinSecretLength)
	}
	return nil
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
	TimeZone string

	// SecretName, when set, names an AWS Secrets Manager secret whose JSON
	// body overrides the credentials above.
	SecretName string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone,
	)
}

type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c OIDCConfig) Enabled() bool {
	return c.Issuer != "" && c.ClientID != ""
}

type EventsConfig struct {
	Backend      string // sns, kafka or none
	SNSTopicARN  string
	KafkaBrokers []string
	KafkaTopic   string
}

type AWSConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

type AfricaTalkingConfig struct {
	Username string
	APIKey   string
	SMSURL   string
	SenderID string
}

func (c AfricaTalkingConfig) Enabled() bool {
	return c.Username != "" && c.APIKey != ""
}

type EmailConfig struct {
	SenderEmail string
}

// Load reads .env (when present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("no .env file loaded", zap.Error(err))
	}

	return &Config{
		App: AppConfig{
			Env:            getEnvOrDefault("APP_ENV", "development"),
			Port:           getEnvOrDefault("PORT", "8080"),
			SessionSecret:  getEnvOrDefault("SESSION_SECRET", DefaultSecret),
			JWTSecret:      getEnvOrDefault("JWT_SECRET", DefaultSecret),
			JWTTTL:         getDurationOrDefault("JWT_TTL", 24*time.Hour),
			AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
			RateLimit:      getIntOrDefault("RATE_LIMIT_PER_MINUTE", 100),
			RateBurst:      getIntOrDefault("RATE_LIMIT_BURST", 50),
		},
		DB:            LoadDBConfig(),
		Redis:         RedisConfig{URL: os.Getenv("REDIS_URL"), CacheTTL: getDurationOrDefault("CACHE_TTL", 10*time.Minute)},
		OIDC:          LoadOIDCConfig(),
		Events:        LoadEventsConfig(),
		AWS:           LoadAWSConfig(),
		Email:         EmailConfig{SenderEmail: os.Getenv("AWS_SENDER_ADDRESS")},
		AfricaTalking: LoadAfricaTalkingConfig(),
	}
}

func LoadDBConfig() DBConfig {
	return DBConfig{
		Host:       getEnvOrDefault("POSTGRES_HOST", "localhost"),
		User:       getEnvOrDefault("POSTGRES_USER", "test"),
		Password:   getEnvOrDefault("POSTGRES_PASSWORD", "test"),
		Name:       getEnvOrDefault("POSTGRES_DB", "test"),
		Port:       getEnvOrDefault("DB_PORT", "5432"),
		SSLMode:    getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		TimeZone:   getEnvOrDefault("DB_TIMEZONE", "Africa/Nairobi"),
		SecretName: os.Getenv("DB_SECRET_NAME"),
	}
}

func LoadOIDCConfig() OIDCConfig {
	return OIDCConfig{
		Issuer:       os.Getenv("OIDC_ISSUER"),
		ClientID:     os.Getenv("OIDC_CLIENT_ID"),
		ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
	}
}

func LoadEventsConfig() EventsConfig {
	return EventsConfig{
		Backend:      strings.ToLower(getEnvOrDefault("EVENTS_BACKEND", "none")),
		SNSTopicARN:  os.Getenv("SNS_ORDER_TOPIC_ARN"),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnvOrDefault("KAFKA_ORDER_TOPIC", "order-events"),
	}
}

func LoadAWSConfig() AWSConfig {
	return AWSConfig{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Region:          getEnvOrDefault("AWS_REGION", "us-east-1"),
	}
}

func LoadAfricaTalkingConfig() AfricaTalkingConfig {
	return AfricaTalkingConfig{
		Username: os.Getenv("AT_USERNAME"),
		APIKey:   os.Getenv("AT_API_KEY"),
		SMSURL:   getEnvOrDefault("AT_SMS_URL", "https://api.sandbox.africastalking.com/version1/messaging"), // Sandbox URL
		SenderID: getEnvOrDefault("AT_SENDER_ID", "AFRICASTKNG"), // Default sandbox sender ID
	}
}

// SDKConfig builds an aws.Config. Static keys win over the default chain.
func (c AWSConfig) SDKConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

type secretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type dbSecret struct {
	Host     string      `json:"host"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	DBName   string      `json:"dbname"`
	Port     json.Number `json:"port"`
}

// ApplySecret overlays the non-empty fields of the named secret onto c.
func (c *DBConfig) ApplySecret(ctx context.Context, client secretGetter) error {
	if c.SecretName == "" {
		return nil
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(c.SecretName)})
	if err != nil {
		return fmt.Errorf("fetch secret %s: %w", c.SecretName, err)
	}
	if out.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", c.SecretName)
	}

	var s dbSecret
	if err := json.Unmarshal([]byte(*out.SecretString), &s); err != nil {
		return fmt.Errorf("decode secret %s: %w", c.SecretName, err)
	}

	if s.Host != "" {
		c.Host = s.Host
	}
	if s.Username != "" {
		c.User = s.Username
	}
	if s.Password != "" {
		c.Password = s.Password
	}
	if s.DBName != "" {
		c.Name = s.DBName
	}
	if s.Port != "" {
		c.Port = s.Port.String()
	}
	return nil
}

// ResolveDBSecret loads the DB secret through Secrets Manager when one is named.
func (c *Config) ResolveDBSecret(ctx context.Context) error {
	if c.DB.SecretName == "" {
		return nil
	}
	awsCfg, err := c.AWS.SDKConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	return c.DB.ApplySecret(ctx, secretsmanager.NewFromConfig(awsCfg))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), "/")); part != "" {
			out = append(out, part)
		}
	}
	return out
}
