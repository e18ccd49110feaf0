package config

import (
	"encoding/json"
	"os"

	"github.com/pwisniewski/hipokrates/internal/flagx"
	"github.com/pwisniewski/hipokrates/internal/timex"
)

// JSONConfig is the intermediate DTO used only for reading configuration
// files. Duration fields use timex.Duration so JSON can specify them as
// either strings ("30s") or integer nanoseconds. After unmarshalling, set
// fields are copied into the runtime Config.
type JSONConfig struct {
	EndpointAddr          *string        `json:"endpoint_addr"`
	S3Endpoint            *string        `json:"s3_endpoint"`
	S3Region              *string        `json:"s3_region"`
	S3Bucket              *string        `json:"s3_bucket"`
	S3AccessKey           *string        `json:"s3_access_key"`
	S3SecretKey           *string        `json:"s3_secret_key"`
	CatalogObjectKey      *string        `json:"catalog_object_key"`
	PaymentsObjectKey     *string        `json:"payments_object_key"`
	DataDir               *string        `json:"data_dir"`
	StaticDir             *string        `json:"static_dir"`
	Password              *string        `json:"password"`
	PasswordHash          *string        `json:"password_hash"`
	SecretKey             *string        `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	LoginMaxFailures      *int           `json:"login_max_failures"`
	LoginLockoutWindow    *timex.Duration `json:"login_lockout_window"`
	RequestTimeout        *timex.Duration `json:"request_timeout"`
	MaxSavePayloadBytes   *int64         `json:"max_save_payload_bytes"`
	CORSAllowedOrigins    []string       `json:"cors_allowed_origins"`
}

// parseJSON loads configuration values from a JSON file into the provided
// Config. The file path comes from the -c or -config command-line flags;
// when neither is set, no file is loaded. Only fields present in the file
// override defaults. An unreadable or invalid file panics.
func parseJSON(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	c := &JSONConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.S3Endpoint, c.S3Endpoint)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.CatalogObjectKey, c.CatalogObjectKey)
	setString(&config.PaymentsObjectKey, c.PaymentsObjectKey)
	setString(&config.DataDir, c.DataDir)
	setString(&config.StaticDir, c.StaticDir)
	setString(&config.Password, c.Password)
	setString(&config.PasswordHash, c.PasswordHash)
	setString(&config.SecretKey, c.SecretKey)

	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.LoginMaxFailures != nil {
		config.LoginMaxFailures = *c.LoginMaxFailures
	}
	if c.LoginLockoutWindow != nil {
		config.LoginLockoutWindow = c.LoginLockoutWindow.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.MaxSavePayloadBytes != nil {
		config.MaxSavePayloadBytes = *c.MaxSavePayloadBytes
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
}
