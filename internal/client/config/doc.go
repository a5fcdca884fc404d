// Package config loads runtime configuration for the gophvote CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file passed to LoadConfig.
//  3. Command-line flags, applied by the cobra root command on top.
//
// # JSON schema
//
// The JSON loader uses timex.Duration, so the timeout can be either a
// string like "10s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s"
//	}
package config
