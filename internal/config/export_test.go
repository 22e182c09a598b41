package config

// Exported internals for white-box testing from the config_test package.
var (
	GetEnvAsBool    = getEnvAsBool
	GetEnvAsSeconds = getEnvAsSeconds
	AllNumbers      = allNumbers
	AllNonEmpty     = allNonEmpty
)
