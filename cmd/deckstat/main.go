package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "deckstat",
		Short:        "Inspect the card deck and its role effects",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("deck", "deck.json", "card deck file")
	root.PersistentFlags().String("effects", "evaluations.json", "role/card effects file")
	root.AddCommand(newAnalyseCmd(), newCheckCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
