package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Tables TableConfig
	Batch  BatchConfig
	Export ExportConfig
}

// TableConfig holds the DynamoDB table and index names.
type TableConfig struct {
	JobsTable         string
	JobIDIndex        string
	ImagesTable       string
	TransactionsTable string
}

// BatchConfig holds batch inference configuration.
type BatchConfig struct {
	Bucket        string // bucket for manifests and batch output
	InputPrefix   string
	OutputPrefix  string
	RoleARN       string // execution role passed to the inference service
	DefaultModel  string
	MinBatchSize  int
	SubmitTimeout time.Duration // timeout for the submission call itself, not the async job
	StatusBaseURL string        // base for the status poll URL returned to callers
}

// ExportConfig holds export-related configuration.
type ExportConfig struct {
	SheetName string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Tables: TableConfig{
			JobsTable:         getEnv("JOBS_TABLE", "yorutsuke-batch-jobs"),
			JobIDIndex:        getEnv("JOB_ID_INDEX", "job_id-index"),
			ImagesTable:       getEnv("IMAGES_TABLE", "yorutsuke-pending-images"),
			TransactionsTable: getEnv("TRANSACTIONS_TABLE", "yorutsuke-transactions"),
		},
		Batch: BatchConfig{
			Bucket:        getEnv("BATCH_BUCKET", ""),
			InputPrefix:   getEnv("BATCH_INPUT_PREFIX", "batch/input"),
			OutputPrefix:  getEnv("BATCH_OUTPUT_PREFIX", "batch/output"),
			RoleARN:       getEnv("BATCH_ROLE_ARN", ""),
			DefaultModel:  getEnv("BATCH_MODEL_ID", "amazon.nova-lite-v1:0"),
			MinBatchSize:  getEnvAsInt("BATCH_MIN_SIZE", 100),
			SubmitTimeout: getEnvAsDuration("BATCH_SUBMIT_TIMEOUT", 30*time.Second),
			StatusBaseURL: getEnv("STATUS_BASE_URL", "https://api.yorutsuke.app/v1/batch/status"),
		},
		Export: ExportConfig{
			SheetName: getEnv("EXPORT_SHEET_NAME", "Transactions"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Tables.JobsTable == "" {
		return NewAppError("CONFIG_ERROR", "JOBS_TABLE is required", ErrValidation)
	}
	if c.Batch.Bucket == "" {
		return NewAppError("CONFIG_ERROR", "BATCH_BUCKET is required", ErrValidation)
	}
	if c.Batch.RoleARN == "" {
		return NewAppError("CONFIG_ERROR", "BATCH_ROLE_ARN is required", ErrValidation)
	}
	if c.Batch.MinBatchSize <= 0 {
		return NewAppError("CONFIG_ERROR", "BATCH_MIN_SIZE must be positive", ErrValidation)
	}
	return nil
}
