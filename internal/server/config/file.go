package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophvote/internal/flagx"
	"github.com/dmitrijs2005/gophvote/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the server configuration. Duration
// fields accept strings such as "5m" or integer nanoseconds. Pointers mark
// which fields were present so absent keys keep their previous value.
type FileConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RedisURL                    *string         `json:"redis_url" yaml:"redis_url"`
	CacheTTL                    *timex.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	S3RootUser                  *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	LogBackend                  *string         `json:"log_backend" yaml:"log_backend"`
	LogLevel                    *string         `json:"log_level" yaml:"log_level"`
	RestrictUpdatesToOwner      *bool           `json:"restrict_updates_to_owner" yaml:"restrict_updates_to_owner"`
}

// parseFile overlays values from the file named by -c/-config. The format is
// picked by extension: .yaml and .yml use YAML, anything else JSON.
// A missing or malformed file is a startup error and panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		panic(err)
	}
	fc.apply(config)
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	fc := &FileConfig{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return fc, nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	if fc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	setString(&c.RedisURL, fc.RedisURL)
	if fc.CacheTTL != nil {
		c.CacheTTL = fc.CacheTTL.Duration
	}
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.LogBackend, fc.LogBackend)
	setString(&c.LogLevel, fc.LogLevel)
	if fc.RestrictUpdatesToOwner != nil {
		c.RestrictUpdatesToOwner = *fc.RestrictUpdatesToOwner
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
