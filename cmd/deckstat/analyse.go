package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/kiliankoe/chroniques/internal/deck"
	"github.com/spf13/cobra"
)

func newAnalyseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "analyse",
		Aliases: []string{"analyze"},
		Short:   "Rank cards by how many roles rate them positive",
		RunE: func(cmd *cobra.Command, args []string) error {
			deckFile, _ := cmd.Flags().GetString("deck")
			effectsFile, _ := cmd.Flags().GetString("effects")
			catalog, err := deck.LoadCatalog(deckFile)
			if err != nil {
				return err
			}
			effects, err := deck.LoadEffects(effectsFile)
			if err != nil {
				return err
			}
			printAnalysis(cmd.OutOrStdout(), catalog, effects)
			return nil
		},
	}
}

func printAnalysis(w io.Writer, catalog *deck.Catalog, effects *deck.Effects) {
	ratings := deck.RankByPositives(catalog, effects)

	fmt.Fprintln(w, "=== ANALYSE DES ÉVALUATIONS DE CARTES ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-8s %-15s %-20s\n", "Numéro", "Nom", "Évaluations positives")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for _, r := range ratings {
		fmt.Fprintf(w, "%-8d %-15s %-20d\n", r.ID, r.Name, r.Positives)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== STATISTIQUES ===")
	fmt.Fprintf(w, "Nombre total de cartes analysées: %d\n", len(ratings))
	fmt.Fprintf(w, "Nombre de rôles: %d\n", len(effects.Roles()))
	top := deck.Top(ratings)
	if len(top) > 0 {
		fmt.Fprintf(w, "Carte(s) avec le plus d'évaluations positives (%d):\n", top[0].Positives)
		for _, r := range top {
			fmt.Fprintf(w, "  - %d %s\n", r.ID, r.Name)
		}
	}

	var none []deck.CardRating
	for _, r := range ratings {
		if r.Positives == 0 {
			none = append(none, r)
		}
	}
	if len(none) > 0 {
		fmt.Fprintln(w, "Carte(s) sans évaluation positive:")
		for _, r := range none {
			fmt.Fprintf(w, "  - %d %s\n", r.ID, r.Name)
		}
	}
}
