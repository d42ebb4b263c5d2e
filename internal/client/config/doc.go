// Package config loads runtime configuration for the journal CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-n string   device name reported on saves
//	-b string   path of the local draft database
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "2s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "device_name": "laptop",
//	  "draft_db_path": "journal-drafts.db",
//	  "autosave_debounce": "2s",
//	  "autosave_max_wait": "30s",
//	  "s3_base_endpoint": "http://127.0.0.1:9000",
//	  "s3_bucket": "journal"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
