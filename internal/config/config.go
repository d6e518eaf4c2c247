package config

import (
	"encoding/json"
	"os"
	"strconv"

	"groupsentry/internal/constants"
	"groupsentry/internal/models"
)

var (
	ErrMissingDBPath   = models.ConfigError{Message: "missing database path"}
	ErrMissingAuditDir = models.ConfigError{Message: "missing audit sink directory"}
)

func LoadConfig(path string) (*models.Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)
	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Audit.Dir == "" {
		return ErrMissingAuditDir
	}
	return nil
}

func applyDefaults(c *models.Config) {
	if c.Server.Port == 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeout
	}
	if c.Server.IdleTimeoutSec == 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if c.Matcher.BatchSize == 0 {
		c.Matcher.BatchSize = constants.DefaultMatcherBatchSize
	}
	if c.Matcher.TimeoutSec == 0 {
		c.Matcher.TimeoutSec = constants.DefaultMatcherTimeoutSec
	}
	if c.Audit.MaxSizeMB == 0 {
		c.Audit.MaxSizeMB = constants.DefaultAuditMaxSizeMB
	}
	if c.Audit.MaxBackups == 0 {
		c.Audit.MaxBackups = constants.DefaultAuditMaxBackups
	}
	if c.Audit.MaxAgeDays == 0 {
		c.Audit.MaxAgeDays = constants.DefaultAuditMaxAgeDays
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "groupsentry"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
}

// applyEnvironmentOverrides lets deployments override file settings
// without editing the config, mirroring how the container images are run.
func applyEnvironmentOverrides(c *models.Config) {
	if v := os.Getenv("GROUPSENTRY_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("GROUPSENTRY_AUDIT_DIR"); v != "" {
		c.Audit.Dir = v
	}
	if v := os.Getenv("GROUPSENTRY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GROUPSENTRY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("GROUPSENTRY_MATCHER_BATCH_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			c.Matcher.BatchSize = size
		}
	}
	if v := os.Getenv("GROUPSENTRY_OTLP_ENDPOINT"); v != "" {
		c.Tracing.OTLPEndpoint = v
		c.Tracing.Enabled = true
	}
}
