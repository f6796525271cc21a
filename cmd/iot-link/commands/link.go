package commands

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/benmeehan/iot-link/internal/services"
)

// Link returns the link command.
func Link(root *rootOptions) *cobra.Command {
	var (
		ssid         string
		wifiPassword string
		devices      int
		timeout      time.Duration
		output       string
	)

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Put devices in pairing mode on WiFi and bind them to the account",
		Long: `Link issues a pairing token, broadcasts it together with the WiFi
credentials on the local network and waits until the devices report in to the
control plane or the timeout passes.

Interrupting the command stops the broadcast before it exits.

Example:
  iot-link link --ssid home-wifi --wifi-password secret --devices 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if devices == 0 {
				devices = a.config.Provisioning.Devices
			}

			if _, err := a.orchestrator.Init(ctx); err != nil {
				return err
			}

			linked, err := a.orchestrator.LinkDevice(ctx, services.LinkOptions{
				SSID:         ssid,
				WifiPassword: wifiPassword,
				Devices:      devices,
				Timeout:      timeout,
			})
			if err != nil {
				return err
			}

			if output != "" {
				if err := a.fileClient.WriteJsonFile(output, linked); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(linked)
		},
	}

	cmd.Flags().StringVar(&ssid, "ssid", "", "WiFi network name (required)")
	cmd.Flags().StringVar(&wifiPassword, "wifi-password", "", "WiFi password")
	cmd.Flags().IntVar(&devices, "devices", 0, "Number of devices to wait for (default from provisioning.devices)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Time to wait for devices (default from provisioning.timeout)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the linked devices to this JSON file")
	_ = cmd.MarkFlagRequired("ssid")

	return cmd
}
