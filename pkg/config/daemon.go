package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pknames/pknames-go/pkg/werrors"
)

const daemonConfigFileName = "daemon.yaml"

// DaemonConfig is the optional `~/.pknames/daemon.yaml` overlay for the
// `serve` subcommand: any field left unset in the file keeps the CLI
// flag's own default, letting an operator pin persistent daemon settings
// without retyping flags on every invocation.
type DaemonConfig struct {
	Socket  string `yaml:"socket"`
	Forward string `yaml:"forward"`
	Threads int    `yaml:"threads"`
	NoCache bool   `yaml:"no_cache"`
}

// DaemonConfigPath is where `serve` looks for the optional YAML overlay.
func (d Directory) DaemonConfigPath() string { return filepath.Join(d.Path, daemonConfigFileName) }

// ReadDaemonConfig loads the daemon.yaml overlay, returning a zero-value
// DaemonConfig (not an error) if the file doesn't exist - the overlay is
// optional, unlike the secret and static_lists directory.
func (d Directory) ReadDaemonConfig() (DaemonConfig, error) {
	data, err := os.ReadFile(d.DaemonConfigPath())
	if os.IsNotExist(err) {
		return DaemonConfig{}, nil
	}
	if err != nil {
		return DaemonConfig{}, werrors.New(werrors.Configuration, "read daemon.yaml", err)
	}
	var cfg DaemonConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DaemonConfig{}, werrors.New(werrors.Configuration, "parse daemon.yaml", err)
	}
	return cfg, nil
}
