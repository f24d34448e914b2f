package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pknames/pknames-go/pkg/identity"
)

// newRemoveCmd removes a follow from the operator's own list, matched by
// (target, attribution) equality rule: two args removes the
// list follow toward target, three removes the class follow attributing
// domain to target.
func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <target-key> [domain]",
		Short: "Remove a follow from your own list",
		Args:  cobra.RangeArgs(1, 2),
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
			var want identity.Follow
			if len(args) == 2 {
				want = identity.NewClassFollow(target, 0, args[1])
			} else {
				want = identity.NewFollow(target, 0)
			}

			list, err := dir.ReadList(pub)
			if err != nil {
				return err
			}

			kept := make([]identity.Follow, 0, len(list.Follows))
			removed := false
			for _, f := range list.Follows {
				if f.Key() == want.Key() {
					removed = true
					continue
				}
				kept = append(kept, f)
			}
			if !removed {
				return fmt.Errorf("no matching follow for %s", target)
			}

			list = identity.NewFollowList(list.Owner, list.Alias, kept)
			if err := dir.WriteList(list); err != nil {
				return err
			}

			fmt.Printf("removed follow toward %s\n", target)
			return nil
		},
	}
}
