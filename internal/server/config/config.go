// Package config handles configuration for the server: defaults, JSON
// overlay, and command-line flags, applied in that order.
package config

import "time"

// Config holds runtime settings for the hipokrates server.
//
// Fields:
//   - EndpointAddr: HTTP bind address.
//   - S3Endpoint / S3Region / S3Bucket / S3AccessKey / S3SecretKey:
//     object storage settings. An empty S3Endpoint disables the remote
//     backend entirely (local-only mode, no version tokens).
//   - CatalogObjectKey / PaymentsObjectKey: blob names for the two record
//     kinds, also used as local fallback file names under DataDir.
//   - Password / PasswordHash: staff credential. A non-empty bcrypt hash
//     takes precedence over the plaintext password.
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - TokenValidityDuration: session token lifetime.
//   - LoginMaxFailures / LoginLockoutWindow: login rate limiting.
//   - RequestTimeout: ceiling for a single remote storage call.
//   - MaxSavePayloadBytes: request body cap on the catalog save endpoint.
type Config struct {
	EndpointAddr          string
	S3Endpoint            string
	S3Region              string
	S3Bucket              string
	S3AccessKey           string
	S3SecretKey           string
	CatalogObjectKey      string
	PaymentsObjectKey     string
	DataDir               string
	StaticDir             string
	Password              string
	PasswordHash          string
	SecretKey             string
	TokenValidityDuration time.Duration
	LoginMaxFailures      int
	LoginLockoutWindow    time.Duration
	RequestTimeout        time.Duration
	MaxSavePayloadBytes   int64
	CORSAllowedOrigins    []string
}

// LoadDefaults populates Config with development defaults.
// NOTE: The credential and secret defaults are insecure and must be
// overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.S3Endpoint = "http://127.0.0.1:9000/"
	c.S3Region = "us-east-1"
	c.S3Bucket = "hipokrates"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.CatalogObjectKey = "badania.csv"
	c.PaymentsObjectKey = "platnosci.csv"
	c.DataDir = "data"
	c.StaticDir = "static"
	c.Password = "hipokrates"
	c.PasswordHash = ""
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 12 * time.Hour
	c.LoginMaxFailures = 5
	c.LoginLockoutWindow = 15 * time.Minute
	c.RequestTimeout = 30 * time.Second
	c.MaxSavePayloadBytes = 1 << 20
	c.CORSAllowedOrigins = []string{"*"}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
