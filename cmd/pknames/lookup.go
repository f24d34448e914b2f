package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pknames/pknames-go/pkg/predict"
	"github.com/pknames/pknames-go/pkg/prune"
	"github.com/pknames/pknames-go/pkg/transform"
)

// newLookupCmd runs the WoT pipeline (transform -> prune -> predict) on
// a domain and prints the full prediction breakdown: every
// intermediate node's power and every candidate class's probability.
func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <domain>",
		Short: "Resolve a domain through the web of trust and print the prediction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := args[0]

			dir, err := openDirectory()
			if err != nil {
				return err
			}
			pub, _, err := dir.ReadSecret()
			if err != nil {
				return err
			}
			lists, err := dir.ReadValidLists(logger())
			if err != nil {
				return err
			}

			g := transform.ListsToGraph(lists)
			g = prune.Prune(g, pub, domain)

			pred, err := predict.Predict(g)
			if err != nil {
				return err
			}

			fmt.Println("node powers:")
			for _, n := range pred.Nodes {
				fmt.Printf("  %s: %.6f\n", n.PubKey, n.Power)
			}
			fmt.Println("class probabilities:")
			for _, c := range pred.Classes {
				fmt.Printf("  %s: %.6f\n", c.PubKey, c.Probability)
			}
			if best, ok := pred.Best(); ok {
				fmt.Printf("best: %s (%.6f)\n", best.PubKey, best.Probability)
			}
			return nil
		},
	}
}
