package config

import "time"

// AWSConfig represents the AWS configuration shared by the S3 backend and
// the KMS sealer.
type AWSConfig struct {
	Region    string        `mapstructure:"region"      validate:"required"`
	Endpoint  string        `mapstructure:"endpoint"    validate:"omitempty,url"`
	KMSKeyARN string        `mapstructure:"kms_key_arn" validate:"omitempty,arn"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

const (
	KMSNone  = "none"
	KMSLocal = "local"
	KMSAWS   = "aws"
)

// KMSConfig selects how stored values are sealed at rest.
type KMSConfig struct {
	Provider  string `mapstructure:"provider"   validate:"required,oneof=none local aws"`
	MasterKey string `mapstructure:"master_key" validate:"required_if=Provider local,omitempty,base64"`
}
