package cli

import (
	"os"

	"gopkg.in/yaml.v3"
)

// configFileName is the project config file loaded from the current
// directory, a file-based alternative to the LKR_* env knobs (spec §6.2).
const configFileName = ".lkrconfig.yaml"

// fileConfig mirrors funxy's internal/ext/config.go build-config struct
// shape (yaml.Unmarshal into a plain struct), trimmed to two knobs: a
// trace filter, which runFile reads, and a runtime-lib-dir override, which
// is parsed but not read by any command.
// Env vars of the same name win over this file when both are set, so a
// one-off LKR_TRACE=... invocation never has to edit the project file.
type fileConfig struct {
	Trace      string `yaml:"trace"`
	RuntimeLib string `yaml:"runtime_lib_dir"`
}

// loadFileConfig reads .lkrconfig.yaml from the current directory. A
// missing file is not an error — most invocations have none.
func loadFileConfig() (fileConfig, error) {
	data, err := os.ReadFile(configFileName)
	if os.IsNotExist(err) {
		return fileConfig{}, nil
	}
	if err != nil {
		return fileConfig{}, err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, err
	}
	return cfg, nil
}

// resolveEnv returns the env var's value if set, else fallback.
func resolveEnv(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}
