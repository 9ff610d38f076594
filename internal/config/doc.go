// Package config loads, normalizes, and validates squeeze configuration.
//
// Settings come from repository defaults, then a TOML file
// (~/.config/squeeze/config.toml or ./squeeze.toml), then environment
// variables, with a .env file in the working directory loaded first so S3
// credentials can live outside the TOML file. CLI flags are applied by the
// caller on top of the returned Config and re-validated.
package config
