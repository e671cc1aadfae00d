package match

import (
	"hash/fnv"
	"strconv"
	"strings"
)

func fallbackKey(league string, season Season, homeTeam, awayTeam, date string) string {
	h := fnv.New64a()
	for _, part := range []string{league, season.String(), homeTeam, awayTeam, date} {
		_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
		_, _ = h.Write([]byte{0})
	}
	return "h-" + strconv.FormatUint(h.Sum64(), 16)
}
