package config

import (
	"time"

	"github.com/gabenodland/trace-sub002/internal/client/attachments"
)

// Config holds runtime settings for the journal CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - DeviceName: the name reported as last_edited_device on saves;
//     empty means "use the hostname".
//   - DraftDBPath: path of the local SQLite draft cache.
//   - AutosaveDebounce: quiet period after the last edit before an
//     autosave fires.
//   - AutosaveMaxWait: upper bound on how long continuous editing can
//     defer an autosave.
//   - Storage: S3-compatible object storage settings for photos.
type Config struct {
	ServerEndpointAddr string
	DeviceName         string
	DraftDBPath        string
	AutosaveDebounce   time.Duration
	AutosaveMaxWait    time.Duration
	Storage            attachments.Config
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DeviceName = ""
	c.DraftDBPath = "journal-drafts.db"
	c.AutosaveDebounce = 2 * time.Second
	c.AutosaveMaxWait = 30 * time.Second
	c.Storage = attachments.Config{
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		Bucket:       "journal",
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
