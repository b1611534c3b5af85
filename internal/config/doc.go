// Package config loads, normalizes, and validates iplayercast configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads the global TOML file plus one TOML file per feed, and
// honours environment fallbacks such as IPLAYERCAST_SERVER_URL. The Config type
// is built once per process and handed to every component that needs it;
// nothing in the repository reads configuration from package-level state.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
