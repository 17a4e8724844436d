package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/guildgate/internal/flagx"
	"github.com/dmitrijs2005/guildgate/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Pointer fields
// distinguish "absent" from zero values so a partial file only overrides
// what it names; durations accept "5m" strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	BridgeTokenHash             *string         `json:"bridge_token_hash"`
	LogLevel                    *string         `json:"log_level"`
	AdminChannel                *string         `json:"admin_channel"`
	WelcomeChannel              *string         `json:"welcome_channel"`
	PhotoCollectionTimeout      *timex.Duration `json:"photo_collection_timeout"`
	PhotoTimeoutResets          *bool           `json:"photo_timeout_resets"`
	ReviewViewIdleExpiry        *timex.Duration `json:"review_view_idle_expiry"`
	NotifyRatePerSecond         *float64        `json:"notify_rate_per_second"`
	NotifyBurst                 *int            `json:"notify_burst"`
	ArchivePhotos               *bool           `json:"archive_photos"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
}

// parseJson loads values from the file named by -c/-config in args into
// config. Nothing happens when no file is requested. An unreadable file or
// invalid JSON panics, matching the fail-fast startup of the other layers.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.BridgeTokenHash, c.BridgeTokenHash)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.AdminChannel, c.AdminChannel)
	setString(&config.WelcomeChannel, c.WelcomeChannel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.PhotoCollectionTimeout != nil {
		config.PhotoCollectionTimeout = c.PhotoCollectionTimeout.Duration
	}
	if c.ReviewViewIdleExpiry != nil {
		config.ReviewViewIdleExpiry = c.ReviewViewIdleExpiry.Duration
	}
	if c.PhotoTimeoutResets != nil {
		config.PhotoTimeoutResets = *c.PhotoTimeoutResets
	}
	if c.ArchivePhotos != nil {
		config.ArchivePhotos = *c.ArchivePhotos
	}
	if c.NotifyRatePerSecond != nil {
		config.NotifyRatePerSecond = *c.NotifyRatePerSecond
	}
	if c.NotifyBurst != nil {
		config.NotifyBurst = *c.NotifyBurst
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
