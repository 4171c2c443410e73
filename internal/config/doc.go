// Package config loads, normalizes, and validates FindMyJob shell configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the FINDMYJOB_BACKEND environment
// override for the backend executable. The Config type holds the knobs the
// host shell needs around the supervisor: where the bundled backend lives,
// where run history and logs are written, and how logs are formatted.
//
// The supervisor's network constants (port, probe timeout, poll interval,
// readiness timeout) are deliberately absent; they are fixed in the sidecar
// and health packages.
package config
