// Package commands defines the iot-link command tree and its flags.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/benmeehan/iot-link/internal/constants"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	email      string
	password   string
	logLevel   string
	logJSON    bool
	metricsOut string
}

// Root returns the root command for the iot-link CLI.
func Root() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "iot-link",
		Short:         "Provision IoT devices onto WiFi and bind them to a cloud account",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", constants.DefaultConfigFile, "Path to the configuration file")
	flags.StringVar(&opts.email, "email", "", "Account email, overrides account.email")
	flags.StringVar(&opts.password, "password", "", "Account password, overrides account.password")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides logging.level")
	flags.BoolVar(&opts.logJSON, "log-json", false, "Write logs as JSON")
	flags.StringVar(&opts.metricsOut, "metrics-out", "", "Write prometheus metrics to this textfile on exit")

	cmd.AddCommand(Login(opts))
	cmd.AddCommand(Link(opts))
	cmd.AddCommand(Devices(opts))
	cmd.AddCommand(Version())

	return cmd
}
