package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devdraft/saligen/pkg/ddclient"
)

// setupViper points the global viper at baseURL and a temporary config file
// and disables retries. Tests using it must not run in parallel.
func setupViper(t *testing.T, baseURL string) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yml")
	viper.SetConfigFile(path)
	viper.Set(ddclient.KeyBaseURL, baseURL)
	viper.Set(ddclient.KeyMaxRetries, 0)

	return path
}

// executeCommand runs cmd with args and returns everything it printed.
func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return buf.String(), err
}

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}
