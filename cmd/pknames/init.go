package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newInitCmd creates the config directory and keypair on first run.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config directory and keypair if they don't exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openDirectory()
			if err != nil {
				return err
			}
			pub, _, err := dir.ReadSecret()
			if err != nil {
				return err
			}
			fmt.Printf("pknames directory: %s\n", dir.Path)
			fmt.Printf("public key:        %s\n", pub)
			return nil
		},
	}
}
