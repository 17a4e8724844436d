package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/flagx"
)

var knownFlags = []string{"-a", "-h", "-d", "-s", "-t", "-l", "-admin", "-welcome", "-w", "-resets", "-archive", "-b", "-e"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     gRPC bind address (e.g. ":50051")
//	-h string     HTTP bind address for the bridge and metrics (e.g. ":8080")
//	-d string     PostgreSQL DSN, or "memory"
//	-s string     JWT HMAC secret key
//	-t int        staff access token validity, minutes
//	-l string     log level
//	-admin string channel receiving new-application alerts
//	-welcome string channel receiving welcome broadcasts
//	-w int        photo collection window, seconds
//	-resets       restart the photo window after each accepted message
//	-archive      archive accepted photos to S3
//	-b string     S3 bucket name
//	-e string     S3 base endpoint
//
// Only the flags above are looked at, so other layers may share args.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "h", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN or \"memory\"")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.AdminChannel, "admin", config.AdminChannel, "admin alert channel")
	fs.StringVar(&config.WelcomeChannel, "welcome", config.WelcomeChannel, "welcome broadcast channel")
	photoWindow := fs.Int("w", int(config.PhotoCollectionTimeout.Seconds()), "photo collection window (in seconds)")
	fs.BoolVar(&config.PhotoTimeoutResets, "resets", config.PhotoTimeoutResets, "reset the photo window after each accepted message")
	fs.BoolVar(&config.ArchivePhotos, "archive", config.ArchivePhotos, "archive photos to S3")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.PhotoCollectionTimeout = time.Duration(*photoWindow) * time.Second
}
