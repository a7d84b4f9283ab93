package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env            string   `envconfig:"ENV" default:"local"`
	HTTPHost       string   `envconfig:"HTTP_HOST" default:""`
	HTTPPort       string   `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"debug"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".taskdash/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"taskdash/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	// MongoDB settings (used when Type == "mongo")
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"taskdash"`
}

type AuthEnv struct {
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"taskdash"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
}

type PolicyEnv struct {
	// PolicyFile overrides the built-in page access policy when set.
	PolicyFile string `envconfig:"POLICY_FILE"`
}

type ReminderEnv struct {
	Spec   string        `envconfig:"REMINDER_SPEC" default:"@every 15m"`
	Window time.Duration `envconfig:"REMINDER_WINDOW" default:"24h"`
	TZ     string        `envconfig:"REMINDER_TZ" default:"UTC"`
}

type EventLogEnv struct {
	// EventLogDir enables the daily activity log when set.
	EventLogDir string `envconfig:"EVENT_LOG_DIR"`
}

type NATSEnv struct {
	URL           string `envconfig:"NATS_URL"`
	SubjectPrefix string `envconfig:"NATS_SUBJECT_PREFIX" default:"taskdash.events"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:admin@example.com"`
}

type Env struct {
	BaseEnv
	StorageEnv
	AuthEnv
	PolicyEnv
	ReminderEnv
	EventLogEnv
	NATSEnv
	VAPIDEnv
}

const namespace = "TASKDASH"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func (e *ReminderEnv) Location() *time.Location {
	loc, err := time.LoadLocation(e.TZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

func BaseEnvFromEnv(env *Env) *BaseEnv {
	return &env.BaseEnv
}

func StorageEnvFromEnv(env *Env) *StorageEnv {
	return &env.StorageEnv
}

func AuthEnvFromEnv(env *Env) *AuthEnv {
	return &env.AuthEnv
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}
