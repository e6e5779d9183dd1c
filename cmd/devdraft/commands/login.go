package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/devdraft/saligen/pkg/ddclient"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var verifyPath string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key",
		Long: `Store an API key in the config file. The key is taken from --api-key or
DEVDRAFT_API_KEY when set, otherwise it is prompted for without echo.
With --verify PATH the key is used for a GET request first and only saved
when that request succeeds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey := viper.GetString(ddclient.KeyAPIKey)
			if apiKey == "" {
				var err error

				apiKey, err = promptSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "API key: ")
				if err != nil {
					return err
				}
			}

			if apiKey == "" {
				return ErrAPIKeyRequired
			}

			viper.Set(ddclient.KeyAPIKey, apiKey)

			if verifyPath != "" {
				client, err := CreateClient()
				if err != nil {
					return err
				}

				_, err = client.Get(cmd.Context(), verifyPath, nil)
				if err != nil {
					return fmt.Errorf("API key rejected: %w", err)
				}
			}

			err := setConfigValue(ddclient.KeyAPIKey, apiKey)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("base-url") {
				err = setConfigValue(ddclient.KeyBaseURL, viper.GetString(ddclient.KeyBaseURL))
				if err != nil {
					return err
				}
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved API key %s\n", redact(apiKey))

			return err
		},
	}

	cmd.Flags().StringVar(&verifyPath, "verify", "", "GET this path with the key before saving it")

	return cmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long:  "Remove the API key and bearer token from the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := unsetConfigValues(ddclient.KeyAPIKey, ddclient.KeyBearerToken)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return err
		},
	}
}

// promptSecret reads a secret without echo when in is a terminal, or a
// single line otherwise.
func promptSecret(in io.Reader, out io.Writer, prompt string) (string, error) {
	_, _ = fmt.Fprint(out, prompt)

	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		secret, err := term.ReadPassword(int(file.Fd()))

		_, _ = fmt.Fprintln(out)

		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}

		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	return strings.TrimSpace(line), nil
}
