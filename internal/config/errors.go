package config

import "errors"

var (
	ErrNotFound = errors.New("configuration not found")
	ErrParse    = errors.New("invalid configuration")
	ErrEnv      = errors.New("invalid environment override")
)
