package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/devdraft/saligen/internal/auth"
	"github.com/devdraft/saligen/internal/constants"
	"github.com/devdraft/saligen/pkg/ddclient"
)

const headerKeyPrefix = ddclient.KeyHeaders + "."

// configKeys lists the settable keys and how each value is parsed.
var configKeys = map[string]func(string) (interface{}, error){
	ddclient.KeyBaseURL:     parseStringValue,
	ddclient.KeyAPIKey:      parseStringValue,
	ddclient.KeyBearerToken: parseStringValue,
	ddclient.KeyUserAgent:   parseStringValue,
	ddclient.KeyTimeout:     parseTimeoutValue,
	ddclient.KeyMaxRetries:  parseRetriesValue,
	ddclient.KeyDebug:       parseBoolValue,
	KeyOutput:               parseOutputValue,
}

// secretKeys are redacted by config show.
var secretKeys = map[string]bool{
	ddclient.KeyAPIKey:      true,
	ddclient.KeyBearerToken: true,
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and edit the settings stored in the DevDraft CLI config file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration from flags, environment and config file. Credentials are redacted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := effectiveSettings()
			out := cmd.OutOrStdout()

			switch viper.GetString(KeyOutput) {
			case constants.FormatJSON:
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", defaultJSONIndent)

				return encoder.Encode(settings)
			case constants.FormatYAML:
				encoder := yaml.NewEncoder(out)

				return encoder.Encode(settings)
			default:
				return displayConfigTable(out, settings)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

Keys: base_url, api_key, bearer_token, user_agent, timeout, max_retries,
debug, output, and headers.NAME for a custom header sent on every request.`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := setConfigValue(args[0], args[1])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return err
		},
	}

	// Values such as -1 are arguments, not shorthand flags.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := unsetConfigValues(args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return err
		},
	}
}

// setConfigValue validates value and writes it to the config file.
func setConfigValue(key, value string) error {
	settings, path, err := loadConfigFile()
	if err != nil {
		return err
	}

	if name, ok := strings.CutPrefix(key, headerKeyPrefix); ok && name != "" {
		headers, _ := settings[ddclient.KeyHeaders].(map[string]interface{})
		if headers == nil {
			headers = make(map[string]interface{})
		}

		headers[name] = value
		settings[ddclient.KeyHeaders] = headers

		return saveConfigFile(path, settings)
	}

	parse, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	parsed, err := parse(value)
	if err != nil {
		return fmt.Errorf("%w for %s: %w", ErrInvalidConfigValue, key, err)
	}

	settings[key] = parsed

	return saveConfigFile(path, settings)
}

// unsetConfigValues removes keys from the config file. Unknown keys are an
// error; keys that are simply absent are not.
func unsetConfigValues(keys ...string) error {
	settings, path, err := loadConfigFile()
	if err != nil {
		return err
	}

	for _, key := range keys {
		if name, ok := strings.CutPrefix(key, headerKeyPrefix); ok && name != "" {
			if headers, ok := settings[ddclient.KeyHeaders].(map[string]interface{}); ok {
				delete(headers, name)
			}

			continue
		}

		if _, ok := configKeys[key]; !ok && key != ddclient.KeyHeaders {
			return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
		}

		delete(settings, key)
	}

	return saveConfigFile(path, settings)
}

// configFilePath returns the config file in use, or the default location.
func configFilePath() (string, error) {
	if file := viper.ConfigFileUsed(); file != "" {
		return file, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName+".yml"), nil
}

func loadConfigFile() (map[string]interface{}, string, error) {
	path, err := configFilePath()
	if err != nil {
		return nil, "", err
	}

	settings := make(map[string]interface{})

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return settings, path, nil
	}

	if err != nil {
		return nil, "", fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, &settings)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if settings == nil {
		settings = make(map[string]interface{})
	}

	return settings, path, nil
}

func saveConfigFile(path string, settings map[string]interface{}) error {
	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Later reads in this process see the new file
	viper.SetConfigFile(path)
	_ = viper.ReadInConfig()

	return nil
}

// effectiveSettings collects the values a client would be built from.
func effectiveSettings() map[string]string {
	settings := map[string]string{
		"config_file": viper.ConfigFileUsed(),
	}

	for key := range configKeys {
		value := viper.GetString(key)
		if secretKeys[key] && value != "" {
			value = redact(value)
		}

		settings[key] = value
	}

	for name, value := range viper.GetStringMapString(ddclient.KeyHeaders) {
		settings[headerKeyPrefix+name] = value
	}

	return settings
}

func redact(secret string) string {
	return auth.Credentials{APIKey: secret}.Redacted()
}

func displayConfigTable(out io.Writer, settings map[string]string) error {
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	for _, key := range keys {
		value := settings[key]
		if value == "" {
			value = NotAvailable
		}

		_ = table.Append([]string{key, value})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func parseStringValue(value string) (interface{}, error) {
	return value, nil
}

func parseTimeoutValue(value string) (interface{}, error) {
	if seconds, err := strconv.ParseFloat(value, 64); err == nil && seconds >= 0 {
		return value, nil
	}

	duration, err := time.ParseDuration(value)
	if err != nil || duration < 0 {
		return nil, fmt.Errorf("%q is neither seconds nor a duration", value)
	}

	return value, nil
}

func parseRetriesValue(value string) (interface{}, error) {
	retries, err := strconv.Atoi(value)
	if err != nil || retries < 0 {
		return nil, fmt.Errorf("%q is not a non-negative integer", value)
	}

	return retries, nil
}

func parseBoolValue(value string) (interface{}, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("%q is not a boolean", value)
	}

	return b, nil
}

func parseOutputValue(value string) (interface{}, error) {
	switch value {
	case constants.FormatJSON, constants.FormatYAML, constants.FormatTable:
		return value, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOutputFormat, value)
	}
}
