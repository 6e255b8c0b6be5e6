package index

import (
	"iter"
	"slices"
	"strings"

	"github.com/MKhiriev/go-multimatrix/models"
	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

func init() {
	algo.Init("default")
}

// Search returns the rooms whose display name or account label fuzzy-match
// query, best score first, base ordering breaking ties. Nothing is computed
// until the sequence is ranged over, and every range starts from fresh
// state. An empty query yields every room in base order.
func (x *Index) Search(query string) iter.Seq[models.SearchMatch] {
	pattern := []rune(strings.ToLower(strings.TrimSpace(query)))

	return func(yield func(models.SearchMatch) bool) {
		base := x.GetUnifiedRooms(x.SortMode())

		if len(pattern) == 0 {
			for _, entry := range base {
				if !yield(models.SearchMatch{Entry: entry}) {
					return
				}
			}
			return
		}

		slab := util.MakeSlab(slab16Size, slab32Size)
		matches := make([]models.SearchMatch, 0, len(base))
		for _, entry := range base {
			nameScore, positions := fuzzyMatch(entry.Room.DisplayName(), pattern, slab)
			labelScore, _ := fuzzyMatch(entry.AccountLabel, pattern, slab)

			switch {
			case nameScore <= 0 && labelScore <= 0:
				continue
			case labelScore > nameScore:
				matches = append(matches, models.SearchMatch{Entry: entry, Score: labelScore})
			default:
				matches = append(matches, models.SearchMatch{Entry: entry, Score: nameScore, Positions: positions})
			}
		}

		// Stable sort keeps base order among equal scores.
		slices.SortStableFunc(matches, func(a, b models.SearchMatch) int {
			return b.Score - a.Score
		})

		for _, m := range matches {
			if !yield(m) {
				return
			}
		}
	}
}

// fuzzyMatch scores text against a lower-cased pattern. A score of zero
// means no match.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) (int, []int) {
	if text == "" {
		return 0, nil
	}
	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, pattern, true, slab)
	if result.Start < 0 {
		return 0, nil
	}

	var pos []int
	if positions != nil {
		pos = slices.Clone(*positions)
		slices.Sort(pos)
	}
	return result.Score, pos
}
