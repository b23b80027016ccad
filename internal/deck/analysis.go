package deck

import "sort"

// CardRating counts how many roles rate a card positively.
type CardRating struct {
	ID        int
	Name      string
	Positives int
}

// RankByPositives orders the catalog by descending positive ratings, ties by card number.
func RankByPositives(c *Catalog, e *Effects) []CardRating {
	out := make([]CardRating, 0, c.Len())
	for _, card := range c.Cards() {
		n := 0
		for _, role := range e.Roles() {
			if e.Resolve(card.ID, role) == Positive {
				n++
			}
		}
		out = append(out, CardRating{ID: card.ID, Name: card.Name, Positives: n})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Positives != out[j].Positives {
			return out[i].Positives > out[j].Positives
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Top returns the ratings sharing the highest count.
func Top(ratings []CardRating) []CardRating {
	if len(ratings) == 0 {
		return nil
	}
	best := ratings[0].Positives
	var out []CardRating
	for _, r := range ratings {
		if r.Positives == best {
			out = append(out, r)
		}
	}
	return out
}
