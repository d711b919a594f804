package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brighton36/rvgp-sub001/currency"
)

var (
	Version   = ""
	CommitSHA = ""
)

// Config holds the optional project configuration file. Paths given on the
// command line take precedence over configured ones.
type Config struct {
	Journal    string `yaml:"journal"`
	Prices     string `yaml:"prices"`
	Currencies string `yaml:"currencies"`
}

// Globals defines global flags available to all commands.
type Globals struct {
	Config string `help:"Project configuration file." default:".rvgp.yml" type:"path"`

	config *Config
}

// LoadConfig reads the configuration file. A missing file at the default
// location yields an empty configuration; an explicitly unreadable or
// malformed file is an error.
func (g *Globals) LoadConfig() (*Config, error) {
	if g.config != nil {
		return g.config, nil
	}

	data, err := os.ReadFile(g.Config)
	if os.IsNotExist(err) {
		g.config = &Config{}
		return g.config, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to read config %q: %w", g.Config, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", g.Config, err)
	}

	g.config = &cfg
	return g.config, nil
}

// Registry resolves the currency table: the configured path when set,
// otherwise the bundled ISO 4217 table.
func (g *Globals) Registry() (*currency.Registry, error) {
	cfg, err := g.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Currencies != "" {
		return currency.LoadRegistry(cfg.Currencies)
	}
	return currency.Default(), nil
}

type Commands struct {
	Globals

	Check   CheckCmd   `cmd:"" help:"Parse and validate a journal file."`
	Dump    DumpCmd    `cmd:"" help:"Parse a journal file and dump its postings."`
	Price   PriceCmd   `cmd:"" help:"Look up an exchange rate from a prices file."`
	Convert ConvertCmd `cmd:"" help:"Convert a commodity into another currency."`
	Record  RecordCmd  `cmd:"" help:"Record exchange rates a journal needs but the prices file lacks."`
	Watch   WatchCmd   `cmd:"" help:"Re-validate a journal whenever it changes."`
}
