package config

import (
	"testing"
	"time"

	"github.com/jrzesz33/lex_provisioner/internal/models"
)

var configEnvVars = []string{
	"STAGE",
	"AWS_REGION",
	"PROVISIONING_TABLE_NAME",
	"PROVISIONING_TOPIC_ARN",
	"DELETE_MAX_ATTEMPTS",
	"DELETE_RETRY_DELAY",
	"RESPONSE_TIMEOUT",
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		envVars   map[string]string
		wantErr   bool
		checkFunc func(*testing.T, *Config)
	}{
		{
			name: "valid configuration with all env vars",
			envVars: map[string]string{
				"STAGE":                   "prod",
				"AWS_REGION":              "us-west-2",
				"PROVISIONING_TABLE_NAME": "lex-provisioning",
				"PROVISIONING_TOPIC_ARN":  "arn:aws:sns:us-west-2:123456789012:lex-provisioning",
				"DELETE_MAX_ATTEMPTS":     "3",
				"DELETE_RETRY_DELAY":      "2s",
				"RESPONSE_TIMEOUT":        "10s",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Stage != models.StageProd {
					t.Errorf("Stage = %v, want %v", cfg.Stage, models.StageProd)
				}
				if cfg.AWSRegion != "us-west-2" {
					t.Errorf("AWSRegion = %v, want %v", cfg.AWSRegion, "us-west-2")
				}
				if cfg.DeleteMaxAttempts != 3 {
					t.Errorf("DeleteMaxAttempts = %v, want 3", cfg.DeleteMaxAttempts)
				}
				if cfg.DeleteRetryDelay != 2*time.Second {
					t.Errorf("DeleteRetryDelay = %v, want 2s", cfg.DeleteRetryDelay)
				}
				if cfg.ResponseTimeout != 10*time.Second {
					t.Errorf("ResponseTimeout = %v, want 10s", cfg.ResponseTimeout)
				}
				if !cfg.LedgerEnabled() || !cfg.NotificationsEnabled() {
					t.Error("ledger and notifications should be enabled")
				}
			},
		},
		{
			name:    "defaults when optional vars not set",
			envVars: map[string]string{},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Stage != models.StageDev {
					t.Errorf("Stage = %v, want default %v", cfg.Stage, models.StageDev)
				}
				if cfg.AWSRegion != "us-east-1" {
					t.Errorf("AWSRegion = %v, want default %v", cfg.AWSRegion, "us-east-1")
				}
				if cfg.DeleteMaxAttempts != 5 {
					t.Errorf("DeleteMaxAttempts = %v, want default 5", cfg.DeleteMaxAttempts)
				}
				if cfg.DeleteRetryDelay != 5*time.Second {
					t.Errorf("DeleteRetryDelay = %v, want default 5s", cfg.DeleteRetryDelay)
				}
				if cfg.LedgerEnabled() || cfg.NotificationsEnabled() {
					t.Error("ledger and notifications should be disabled by default")
				}
			},
		},
		{
			name:    "invalid stage value",
			envVars: map[string]string{"STAGE": "invalid"},
			wantErr: true,
		},
		{
			name:    "non numeric max attempts",
			envVars: map[string]string{"DELETE_MAX_ATTEMPTS": "five"},
			wantErr: true,
		},
		{
			name:    "zero max attempts",
			envVars: map[string]string{"DELETE_MAX_ATTEMPTS": "0"},
			wantErr: true,
		},
		{
			name:    "invalid retry delay",
			envVars: map[string]string{"DELETE_RETRY_DELAY": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range configEnvVars {
				t.Setenv(key, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid",
			cfg:     Config{Stage: models.StageDev, AWSRegion: "us-east-1", DeleteMaxAttempts: 5},
			wantErr: false,
		},
		{
			name:    "missing region",
			cfg:     Config{Stage: models.StageDev, DeleteMaxAttempts: 5},
			wantErr: true,
		},
		{
			name:    "negative delay",
			cfg:     Config{Stage: models.StageDev, AWSRegion: "us-east-1", DeleteMaxAttempts: 5, DeleteRetryDelay: -time.Second},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
