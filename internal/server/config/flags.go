package config

import (
	"flag"
	"os"
	"time"

	"github.com/pwisniewski/hipokrates/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-e string   S3 base endpoint ("" disables the remote backend)
//	-g string   S3 region
//	-b string   S3 bucket name
//	-u string   S3 access key
//	-p string   S3 secret key
//	-s string   session token HMAC secret
//	-t int      session token validity, minutes
//	-d string   local data directory
//	-w string   static files directory
//
// The function first filters os.Args to only the flags it recognizes via
// flagx.FilterArgs, avoiding collisions with the -c/-config file flags.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-e", "-g", "-b", "-u", "-p", "-s", "-t", "-d", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.S3Endpoint, "e", config.S3Endpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.StringVar(&config.DataDir, "d", config.DataDir, "local data directory")
	fs.StringVar(&config.StaticDir, "w", config.StaticDir, "static files directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}
