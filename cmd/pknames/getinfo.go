package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newGetinfoCmd prints the operator's own public key in both its textual
// forms.
func newGetinfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "getinfo",
		Short: "Print your own public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openDirectory()
			if err != nil {
				return err
			}
			pub, _, err := dir.ReadSecret()
			if err != nil {
				return err
			}
			fmt.Printf("pubkey: %s\n", pub)
			fmt.Printf("z32:    %s\n", pub.Z32())
			return nil
		},
	}
}
