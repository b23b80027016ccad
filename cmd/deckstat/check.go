package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/kiliankoe/chroniques/internal/deck"
	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("deck check failed")

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the deck and effects files",
		RunE: func(cmd *cobra.Command, args []string) error {
			deckFile, _ := cmd.Flags().GetString("deck")
			effectsFile, _ := cmd.Flags().GetString("effects")
			return runCheck(cmd.OutOrStdout(), deckFile, effectsFile)
		},
	}
}

// runCheck reports every problem it can find. Effects that point at unknown
// cards are warnings; anything that would stop the server is an error.
func runCheck(w io.Writer, deckFile, effectsFile string) error {
	failed := false
	catalog, err := deck.LoadCatalog(deckFile)
	if err != nil {
		fmt.Fprintf(w, "ERREUR %s: %v\n", deckFile, err)
		failed = true
	} else {
		fmt.Fprintf(w, "ok     %s: %d cartes\n", deckFile, catalog.Len())
	}

	effects, err := deck.LoadEffects(effectsFile)
	if err != nil {
		fmt.Fprintf(w, "ERREUR %s: %v\n", effectsFile, err)
		failed = true
	} else {
		fmt.Fprintf(w, "ok     %s: %d rôles\n", effectsFile, len(effects.Roles()))
	}

	if catalog != nil && effects != nil {
		unknown := effects.UnknownCards(catalog)
		for _, role := range effects.Roles() {
			if ids := unknown[role]; len(ids) > 0 {
				fmt.Fprintf(w, "alerte %s: cartes inconnues %v\n", role, ids)
			}
		}
	}

	if failed {
		return errCheckFailed
	}
	return nil
}
