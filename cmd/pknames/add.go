package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pknames/pknames-go/pkg/identity"
)

// newAddCmd adds or updates a follow in the operator's own list: a plain
// list follow with two args, or a class (domain-attributed) follow with
// three.
func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <target-key> <weight> [domain]",
		Short: "Add or update a follow in your own list",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openDirectory()
			if err != nil {
				return err
			}
			pub, _, err := dir.ReadSecret()
			if err != nil {
				return err
			}

			target, err := identity.ParsePublicKey(args[0])
			if err != nil {
				return fmt.Errorf("invalid target key: %w", err)
			}
			weight, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid weight: %w", err)
			}

			var follow identity.Follow
			if len(args) == 3 {
				follow = identity.NewClassFollow(target, weight, args[2])
			} else {
				follow = identity.NewFollow(target, weight)
			}

			list, err := dir.ReadList(pub)
			if err != nil {
				return err
			}
			list = identity.NewFollowList(list.Owner, list.Alias, append(list.Follows, follow))
			if err := dir.WriteList(list); err != nil {
				return err
			}

			fmt.Printf("added %s\n", follow)
			return nil
		},
	}
}
