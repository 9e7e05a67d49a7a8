// Package config loads [client.Client] settings from a TOML file.
//
// A missing file is not an error; the defaults of [client.Build] apply.
// Every field is optional:
//
//	timeout_policy = "abandon"
//	max_header_bytes = 32768
//	handshake_attempts = 100
//
//	[pool]
//	total_size = 64
//	destination_size = 8
//	unused_timeout = "30s"
//
//	[throttle]
//	rps = 100
//	burst = 10
//
// [Config.Options] turns a loaded Config into options for [client.Build].
package config
