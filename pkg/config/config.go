package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jrzesz33/lex_provisioner/internal/models"
)

const (
	defaultDeleteMaxAttempts = 5
	defaultDeleteRetryDelay  = 5 * time.Second
	defaultResponseTimeout   = 30 * time.Second
)

// Config holds all configuration for the provisioner
type Config struct {
	// Stage is the deployment environment (dev, stage, prod)
	Stage models.Stage

	// AWS Configuration
	AWSRegion string

	// ProvisioningTableName is the optional DynamoDB ledger table
	ProvisioningTableName string

	// ProvisioningTopicArn is the optional SNS topic for lifecycle outcomes
	ProvisioningTopicArn string

	// Delete retry policy
	DeleteMaxAttempts int
	DeleteRetryDelay  time.Duration

	// ResponseTimeout bounds each PUT of the CloudFormation response
	ResponseTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = "dev"
	}

	stageEnum := models.Stage(stage)
	if !stageEnum.IsValid() {
		return nil, fmt.Errorf("invalid STAGE value: %s (must be dev, stage, or prod)", stage)
	}

	awsRegion := os.Getenv("AWS_REGION")
	if awsRegion == "" {
		awsRegion = "us-east-1"
	}

	deleteMaxAttempts := defaultDeleteMaxAttempts
	if v := os.Getenv("DELETE_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DELETE_MAX_ATTEMPTS value: %s", v)
		}
		deleteMaxAttempts = n
	}

	deleteRetryDelay, err := durationEnv("DELETE_RETRY_DELAY", defaultDeleteRetryDelay)
	if err != nil {
		return nil, err
	}

	responseTimeout, err := durationEnv("RESPONSE_TIMEOUT", defaultResponseTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Stage:                 stageEnum,
		AWSRegion:             awsRegion,
		ProvisioningTableName: os.Getenv("PROVISIONING_TABLE_NAME"),
		ProvisioningTopicArn:  os.Getenv("PROVISIONING_TOPIC_ARN"),
		DeleteMaxAttempts:     deleteMaxAttempts,
		DeleteRetryDelay:      deleteRetryDelay,
		ResponseTimeout:       responseTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if !c.Stage.IsValid() {
		return fmt.Errorf("invalid stage: %s", c.Stage)
	}

	if c.AWSRegion == "" {
		return fmt.Errorf("AWS region is required")
	}

	if c.DeleteMaxAttempts < 1 {
		return fmt.Errorf("delete max attempts must be at least 1, got %d", c.DeleteMaxAttempts)
	}

	if c.DeleteRetryDelay < 0 {
		return fmt.Errorf("delete retry delay must not be negative")
	}

	return nil
}

// LedgerEnabled returns true if outcomes should be written to DynamoDB
func (c *Config) LedgerEnabled() bool {
	return c.ProvisioningTableName != ""
}

// NotificationsEnabled returns true if outcomes should be published to SNS
func (c *Config) NotificationsEnabled() bool {
	return c.ProvisioningTopicArn != ""
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s", key, v)
	}
	return d, nil
}
