package cli

import "fmt"

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	Config    string `help:"Path to a yaml config file with defaults." type:"path"`
}

// LoadConfig reads the configured or default config file.
func (g *Globals) LoadConfig() (*Config, error) {
	if g.Config != "" {
		return LoadConfig(g.Config, true)
	}

	path := DefaultConfigPath()
	if path == "" {
		return &Config{}, nil
	}
	return LoadConfig(path, false)
}

// Commands is the root of the kong command tree.
type Commands struct {
	Globals

	Check    CheckCmd    `cmd:"" help:"Load and book a ledger file, reporting the first error."`
	Balances BalancesCmd `cmd:"" help:"Book a ledger file and print the final balances."`
	Journal  JournalCmd  `cmd:"" help:"Book a ledger file and print the booked journal."`
	Web      WebCmd      `cmd:"" help:"Serve the booked ledger as a JSON API."`
}

// resolveFile applies the config-file default when no file argument was
// given and stdin is a terminal.
func resolveFile(file *FileOrStdin, config *Config) error {
	if file.Filename == "" && config.Ledger != "" && isTerminal() {
		file.Filename = config.Ledger
		return nil
	}
	if file.Filename == "" && config.Ledger == "" && isTerminal() {
		return fmt.Errorf("no ledger file given and no default configured")
	}
	return file.EnsureContents()
}
