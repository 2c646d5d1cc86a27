package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
)

const validSource = `
2025-01-01 open Assets:Bank
2025-01-01 open Equity:Opening

2025-02-01 * "Fund"
  Assets:Bank  100.00 USD
  Equity:Opening
`

func writeLedger(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.ledger")
	assert.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

// runCommand parses and runs a CLI invocation, capturing stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	commands := &Commands{}
	parser, err := kong.New(commands, kong.Name("ledgerbook"))
	assert.NoError(t, err)

	var stdout, stderr bytes.Buffer
	parser.Stdout = &stdout
	parser.Stderr = &stderr

	ctx, err := parser.Parse(args)
	assert.NoError(t, err)

	err = ctx.Run(&commands.Globals)
	return stdout.String(), err
}

func TestCheckCmd_Passes(t *testing.T) {
	file := writeLedger(t, validSource)

	out, err := runCommand(t, "check", file)
	assert.NoError(t, err)
	assert.Contains(t, out, "Check passed")
}

func TestBalancesCmd(t *testing.T) {
	file := writeLedger(t, validSource)

	out, err := runCommand(t, "balances", file)
	assert.NoError(t, err)
	assert.Contains(t, out, "Assets:Bank")
	assert.Contains(t, out, "100 USD")
}

func TestBalancesCmd_AccountFilter(t *testing.T) {
	file := writeLedger(t, validSource)

	out, err := runCommand(t, "balances", "--account", "Equity", file)
	assert.NoError(t, err)
	assert.Contains(t, out, "Equity:Opening")
	assert.NotContains(t, out, "Assets:Bank")
}

func TestJournalCmd(t *testing.T) {
	file := writeLedger(t, validSource)

	out, err := runCommand(t, "journal", file)
	assert.NoError(t, err)
	assert.Contains(t, out, `2025-02-01 * "Fund"`)
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit missing file fails", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), true)
		assert.Error(t, err)
	})

	t.Run("default missing file is empty config", func(t *testing.T) {
		config, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false)
		assert.NoError(t, err)
		assert.Equal(t, "", config.Ledger)
	})

	t.Run("values are read", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		assert.NoError(t, os.WriteFile(path, []byte("ledger: /tmp/x.ledger\naccount: Assets\nport: 9000\n"), 0o644))

		config, err := LoadConfig(path, true)
		assert.NoError(t, err)
		assert.Equal(t, "/tmp/x.ledger", config.Ledger)
		assert.Equal(t, "Assets", config.Account)
		assert.Equal(t, 9000, config.Port)
	})

	t.Run("invalid yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		assert.NoError(t, os.WriteFile(path, []byte(":\n bad"), 0o644))

		_, err := LoadConfig(path, true)
		assert.Error(t, err)
	})
}
