package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Addr:               ":8080",
		DatabaseURL:        "postgres://localhost/mindwell",
		Environment:        "development",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		SweepInterval:      time.Hour,
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestValidateProductionRequiresSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET in production")
	}

	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATA_ENCRYPTION_KEY in production")
	}

	cfg.DataEncryptionKey = "0123456789abcdef0123456789abcdef"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateEmailNeedsHost(t *testing.T) {
	cfg := validConfig()
	cfg.EmailEnabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when EMAIL_ENABLED without SMTP_HOST")
	}
}

func TestValidateKafkaNeedsTopic(t *testing.T) {
	cfg := validConfig()
	cfg.KafkaBroker = "localhost:9092"
	cfg.KafkaTopic = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when KAFKA_BROKER set without topic")
	}
}
