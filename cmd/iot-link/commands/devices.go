package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// Devices returns the devices command.
func Devices(root *rootOptions) *cobra.Command {
	var (
		ids      []string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List devices bound to the account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := a.orchestrator.Init(cmd.Context()); err != nil {
				return err
			}

			result, err := a.orchestrator.GetLinkedDevices(cmd.Context(), ids, page, pageSize)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "Only list these device ids")
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Page size (default 100)")

	return cmd
}
