// Package config loads and validates the service configuration.
//
// # Configuration Sources
//
// Values are resolved in increasing order of precedence:
//
//  1. Default values
//  2. A YAML file ($ANALISADOL_CONFIG, else config.yaml or configs/config.yaml)
//  3. A .env file in the working directory
//  4. Environment variables prefixed with ANALISADOL_
//
// Command line flags bound by the CLI override all of the above.
//
// # Environment Variables
//
// Nested sections map to underscore separated names:
//
//	ANALISADOL_SERVER_PORT=8080
//	ANALISADOL_LOGGING_LEVEL=debug
//	ANALISADOL_UPLOAD_MAX_BYTES=52428800
//	ANALISADOL_SESSION_TTL=2h
//	ANALISADOL_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Paths
//
// A relative logging.file_path is resolved against the executable
// directory (see GetPaths), so the log lands in the same place whatever the
// working directory.
package config
