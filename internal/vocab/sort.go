package vocab

import "sort"

// sortByCountDesc sorts entries by descending count in place.
func sortByCountDesc(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
}
