package constants

// Default server configuration values
const (
	DefaultServerPort           = 8084
	DefaultServerReadTimeoutSec = 15
	DefaultServerWriteTimeout   = 15
	DefaultServerIdleTimeoutSec = 60
	DefaultGracefulShutdownSec  = 30
)

// Default alert matcher configuration values
const (
	DefaultMatcherBatchSize  = 500
	DefaultMatcherTimeoutSec = 300
)

// Default audit sink rotation values
const (
	DefaultAuditMaxSizeMB  = 50
	DefaultAuditMaxBackups = 5
	DefaultAuditMaxAgeDays = 30
)

// Encryption parameters for at-rest message field encryption
const (
	EncryptionSalt       = "groupsentry-field-encryption-v1"
	EncryptionIterations = 100000
	EncryptionKeySize    = 32
	EncryptionNonceSize  = 12
)
