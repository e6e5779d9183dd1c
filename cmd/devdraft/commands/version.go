package commands

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/devdraft/saligen/internal/constants"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the DevDraft CLI and SDK",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version    string `json:"version"     yaml:"version"`
				Commit     string `json:"commit"      yaml:"commit"`
				Built      string `json:"built"       yaml:"built"`
				SDKVersion string `json:"sdk_version" yaml:"sdk_version"`
				GoVersion  string `json:"go_version"  yaml:"go_version"`
			}

			versionInfo := VersionInfo{
				Version:    version,
				Commit:     commit,
				Built:      date,
				SDKVersion: constants.SDKVersion,
				GoVersion:  runtime.Version(),
			}

			out := cmd.OutOrStdout()

			switch viper.GetString(KeyOutput) {
			case constants.FormatJSON:
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", defaultJSONIndent)

				return encoder.Encode(versionInfo)
			case constants.FormatYAML:
				encoder := yaml.NewEncoder(out)

				return encoder.Encode(versionInfo)
			default:
				table := tablewriter.NewWriter(out)
				table.Header("Property", "Value")
				_ = table.Append("Version", version)
				_ = table.Append("Commit", commit)
				_ = table.Append("Built", date)
				_ = table.Append("SDK", constants.SDKVersion)
				_ = table.Append("Go", versionInfo.GoVersion)

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}
}
