package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newLsCmd prints every follow list in the local config directory's
// static_lists/, the operator's own list included, in file-name order.
func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List every known follow list",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openDirectory()
			if err != nil {
				return err
			}
			lists, err := dir.ReadValidLists(logger())
			if err != nil {
				return err
			}
			for _, l := range lists {
				fmt.Print(l)
			}
			return nil
		},
	}
}
