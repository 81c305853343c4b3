package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/usersync/internal/flagx"
	"github.com/dmitrijs2005/usersync/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk form of Config. Intervals use timex.Duration so
// they can be written as "2s" or as integer nanoseconds. Absent fields keep
// the values already in Config.
type FileConfig struct {
	ListenAddr         string         `json:"listen_addr" yaml:"listen_addr"`
	PeerAddr           string         `json:"peer_addr" yaml:"peer_addr"`
	PeerProcess        string         `json:"peer_process" yaml:"peer_process"`
	DatabaseDSN        string         `json:"database_dsn" yaml:"database_dsn"`
	PeerSecret         string         `json:"peer_secret" yaml:"peer_secret"`
	PeerTokenValidity  timex.Duration `json:"peer_token_validity" yaml:"peer_token_validity"`
	StartupSyncDelay   timex.Duration `json:"startup_sync_delay" yaml:"startup_sync_delay"`
	ConnectionTimeout  timex.Duration `json:"connection_timeout" yaml:"connection_timeout"`
	MaxBatchSize       int            `json:"max_batch_size" yaml:"max_batch_size"`
	StartupSyncEnabled *bool          `json:"startup_sync_enabled" yaml:"startup_sync_enabled"`
	Interactive        *bool          `json:"interactive" yaml:"interactive"`
	LogLevel           string         `json:"log_level" yaml:"log_level"`
	S3RootUser         string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region           string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile overlays Config with values from the file named by -c/-config.
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
// It panics if the file cannot be read or decoded.
func parseFile(cfg *Config) {
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
	fc.apply(cfg)
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	}
	return fc, nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.PeerAddr, fc.PeerAddr)
	setString(&cfg.PeerProcess, fc.PeerProcess)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.PeerSecret, fc.PeerSecret)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.S3RootUser, fc.S3RootUser)
	setString(&cfg.S3RootPassword, fc.S3RootPassword)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)

	if fc.PeerTokenValidity.Duration > 0 {
		cfg.PeerTokenValidity = fc.PeerTokenValidity.Duration
	}
	if fc.StartupSyncDelay.Duration > 0 {
		cfg.StartupSyncDelay = fc.StartupSyncDelay.Duration
	}
	if fc.ConnectionTimeout.Duration > 0 {
		cfg.ConnectionTimeout = fc.ConnectionTimeout.Duration
	}
	if fc.MaxBatchSize > 0 {
		cfg.MaxBatchSize = fc.MaxBatchSize
	}
	if fc.StartupSyncEnabled != nil {
		cfg.StartupSyncEnabled = *fc.StartupSyncEnabled
	}
	if fc.Interactive != nil {
		cfg.Interactive = *fc.Interactive
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
