package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/gabenodland/trace-sub002/internal/flagx"
	"github.com/gabenodland/trace-sub002/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "2s" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	DeviceName         string         `json:"device_name"`
	DraftDBPath        string         `json:"draft_db_path"`
	AutosaveDebounce   timex.Duration `json:"autosave_debounce"`
	AutosaveMaxWait    timex.Duration `json:"autosave_max_wait"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	S3Bucket           string         `json:"s3_bucket"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
}

// parseJson overlays Config with values loaded from a JSON file selected
// via the -c or -config flag. Missing file path means no JSON layer.
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DeviceName != "" {
		cfg.DeviceName = jc.DeviceName
	}
	if jc.DraftDBPath != "" {
		cfg.DraftDBPath = jc.DraftDBPath
	}
	if jc.AutosaveDebounce.Duration != 0 {
		cfg.AutosaveDebounce = time.Duration(jc.AutosaveDebounce.Duration)
	}
	if jc.AutosaveMaxWait.Duration != 0 {
		cfg.AutosaveMaxWait = time.Duration(jc.AutosaveMaxWait.Duration)
	}
	if jc.S3Region != "" {
		cfg.Storage.Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		cfg.Storage.BaseEndpoint = jc.S3BaseEndpoint
	}
	if jc.S3Bucket != "" {
		cfg.Storage.Bucket = jc.S3Bucket
	}
	if jc.S3RootUser != "" {
		cfg.Storage.RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		cfg.Storage.RootPassword = jc.S3RootPassword
	}
}
