// Package config loads formrules settings from the environment.
//
// An optional .env file is read first with godotenv; variables already set
// in the process environment win. Values are then parsed into Config with
// caarlos0/env. Command-line flags override whatever Load returns.
//
//	FORMRULES_DB              trace database path (default formrules.db)
//	FORMRULES_FORMAT          output format, text or json (default text)
//	FORMRULES_LOG_LEVEL       debug, info, warn or error (default warn)
//	FORMRULES_MAX_MICROTASKS  microtasks drained per loop turn (default 10000)
package config
