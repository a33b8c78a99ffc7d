// Package config loads and validates the assistant settings.
//
// Settings live in a YAML file. A .env file placed next to it and the
// ASSISTANT_* environment variables override the file values, and Validate
// fills defaults for everything optional.
package config
