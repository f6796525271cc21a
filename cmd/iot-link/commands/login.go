package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Login returns the login command.
func Login(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the control plane and print the account uid",
		Long: `Login registers the account, or logs in when it already exists, and
prints the account uid. Use it to check credentials before linking devices.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			session, err := a.orchestrator.Init(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), session.UID)
			return nil
		},
	}
}
