package config

import "errors"

var (
	// ErrInvalidConfig marks a setting rejected by Validate.
	ErrInvalidConfig = errors.New("config: invalid setting")
	// ErrLoadConfig marks a failure reading the dotenv file, the YAML file or
	// the environment.
	ErrLoadConfig = errors.New("config: load failed")
)
