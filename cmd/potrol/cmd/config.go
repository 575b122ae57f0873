package cmd

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional ~/.potrol.yaml CLI configuration. Flags
// override it; built-in defaults fill whatever remains.
type fileConfig struct {
	Workbook    string `yaml:"workbook"`
	Sheet       string `yaml:"sheet"`
	BackupDir   string `yaml:"backup_dir"`
	KeepBackups int    `yaml:"keep_backups"`
	Prefix      string `yaml:"prefix"`
	StartNumber int    `yaml:"start_number"`
}

func loadFileConfig() fileConfig {
	var cfg fileConfig
	home, err := os.UserHomeDir()
	if err != nil {
		return cfg
	}
	data, err := os.ReadFile(filepath.Join(home, ".potrol.yaml"))
	if err != nil {
		return cfg
	}
	// A malformed config file is ignored; flags and defaults still apply.
	_ = yaml.Unmarshal(data, &cfg)
	return cfg
}
