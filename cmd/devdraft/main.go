package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devdraft/saligen/cmd/devdraft/commands"
	"github.com/devdraft/saligen/internal/constants"
	"github.com/devdraft/saligen/pkg/ddclient"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "devdraft",
	Short: "DevDraft API CLI",
	Long: `A command-line interface for the DevDraft API.

Every command goes through the Go SDK: requests are retried on 429 and 5xx
responses, failures are printed as normalized API errors, and paginated
endpoints can be drained with the paginate command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.devdraft/config.yml)")
	rootCmd.PersistentFlags().String("base-url", "", "API base URL")
	rootCmd.PersistentFlags().StringP("api-key", "k", "", "API key, sent as X-API-Key")
	rootCmd.PersistentFlags().StringP("token", "t", "", "bearer token, wins over the API key")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatJSON, "output format (json, yaml, table)")
	rootCmd.PersistentFlags().Bool("debug", false, "log every attempt to stderr")
	rootCmd.PersistentFlags().Int("max-retries", constants.DefaultRetryMax, "retries after the first attempt (0 disables retries)")
	rootCmd.PersistentFlags().String("timeout", "", "per-attempt timeout in seconds or as a duration such as 30s")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag(ddclient.KeyBaseURL, rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag(ddclient.KeyAPIKey, rootCmd.PersistentFlags().Lookup("api-key"))
	_ = viper.BindPFlag(ddclient.KeyBearerToken, rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag(commands.KeyOutput, rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag(ddclient.KeyDebug, rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag(ddclient.KeyMaxRetries, rootCmd.PersistentFlags().Lookup("max-retries"))
	_ = viper.BindPFlag(ddclient.KeyTimeout, rootCmd.PersistentFlags().Lookup("timeout"))

	viper.SetDefault(ddclient.KeyBaseURL, constants.DefaultBaseURL)

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewPostCommand())
	rootCmd.AddCommand(commands.NewPutCommand())
	rootCmd.AddCommand(commands.NewPatchCommand())
	rootCmd.AddCommand(commands.NewDeleteCommand())
	rootCmd.AddCommand(commands.NewPaginateCommand())
}

func initConfig() {
	// A missing .env is not an error
	_ = godotenv.Load()

	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, constants.ConfigDirName)

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName(constants.ConfigFileName)
	}

	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool(ddclient.KeyDebug) {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		commands.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
