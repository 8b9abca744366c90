package dispatch

import (
	"sort"
	"strconv"
)

func parseInt(s string) (int64, error)     { return strconv.ParseInt(s, 10, 64) }
func formatInt(v int64) string             { return strconv.FormatInt(v, 10) }
func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
func formatFloat(v float64) string         { return strconv.FormatFloat(v, 'g', -1, 64) }

// sortedKeys returns m's keys in ascending order, matching the
// deterministic resource ordering a whole-instance READ must produce.
func sortedKeys(m map[uint16]string) []uint16 {
	keys := make([]uint16, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
