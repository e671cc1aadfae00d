package console

import (
	"fmt"
	"math"
	"strings"

	"github.com/riskibarqy/matchboard/internal/domain/match"
	"github.com/riskibarqy/matchboard/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const barWidth = 20

const (
	barHome = '#'
	barDraw = '='
	barAway = '-'
)

// Render formats a board snapshot as plain text: a header, the live window,
// then one page each of finished and upcoming matches.
func Render(state usecase.BoardState) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	renderHeader(buf, state)
	if state.Phase == usecase.BoardPhaseIdle {
		_, _ = buf.WriteString("No league selected. Type \"league <name>\" to start.\n")
		return buf.String()
	}
	if state.Phase == usecase.BoardPhaseResolvingSeason {
		_, _ = buf.WriteString("Loading seasons...\n")
		return buf.String()
	}

	renderCollection(buf, "Live", state.Live)
	renderCollection(buf, "Finished", state.Finished)
	renderCollection(buf, "Upcoming", state.Upcoming)
	return buf.String()
}

func renderHeader(buf *bytebufferpool.ByteBuffer, state usecase.BoardState) {
	league := state.League
	if league == "" {
		league = "-"
	}
	fmt.Fprintf(buf, "== %s", league)
	if !state.Season.IsZero() {
		fmt.Fprintf(buf, " | season %s", state.Season)
	}
	if len(state.Seasons) > 0 {
		seasons := make([]string, 0, len(state.Seasons))
		for _, season := range state.Seasons {
			seasons = append(seasons, season.String())
		}
		fmt.Fprintf(buf, " (%s)", strings.Join(seasons, ", "))
	}
	fmt.Fprintf(buf, " | limit %d ==\n", state.Limit)
}

func renderCollection(buf *bytebufferpool.ByteBuffer, title string, state usecase.CollectionState) {
	_ = buf.WriteByte('\n')
	if state.Kind == usecase.CollectionLive {
		fmt.Fprintf(buf, "-- %s (%d) --\n", title, state.Total)
	} else {
		fmt.Fprintf(buf, "-- %s  page %d/%d (%d) --\n", title, state.Page+1, state.TotalPages, state.Total)
	}

	switch {
	case state.Loading:
		_, _ = buf.WriteString("  loading...\n")
		return
	case len(state.Items) == 0 && state.Error != "":
		fmt.Fprintf(buf, "  %s\n", state.Error)
		return
	case len(state.Items) == 0:
		_, _ = buf.WriteString("  nothing to show\n")
		return
	}

	for _, item := range state.Items {
		renderMatch(buf, item, state.Kind)
	}
}

func renderMatch(buf *bytebufferpool.ByteBuffer, m match.Match, kind usecase.CollectionKind) {
	prefix := m.DisplayDate()
	if kind == usecase.CollectionLive {
		prefix = fmt.Sprintf("[%s] %s", m.Status, m.League)
	}

	home, away := m.HomeTeam, m.AwayTeam
	switch m.Leader() {
	case "home":
		home = "*" + home
	case "away":
		away = "*" + away
	}

	if kind == usecase.CollectionUpcoming {
		fmt.Fprintf(buf, "  %s  %s vs %s\n", prefix, home, away)
	} else {
		fmt.Fprintf(buf, "  %s  %s %s - %s %s\n", prefix, home, m.HomeScoreText(), m.AwayScoreText(), away)
	}

	fractions := m.Probabilities()
	if fractions.IsZero() {
		return
	}
	fmt.Fprintf(buf, "    [%s] H %s  D %s  A %s\n",
		ProbabilityBar(fractions, barWidth),
		match.Percent(fractions.Home),
		match.Percent(fractions.Draw),
		match.Percent(fractions.Away),
	)
}

// ProbabilityBar draws the three outcome segments in exactly width cells.
// Cells are handed out by largest remainder so the segments always add up.
func ProbabilityBar(f match.Fractions, width int) string {
	if width <= 0 {
		return ""
	}
	if f.IsZero() {
		return strings.Repeat(" ", width)
	}

	shares := [3]float64{f.Home, f.Draw, f.Away}
	var cells [3]int
	var remainders [3]float64
	used := 0
	for i, share := range shares {
		exact := share * float64(width)
		cells[i] = int(math.Floor(exact))
		remainders[i] = exact - float64(cells[i])
		used += cells[i]
	}
	for ; used < width; used++ {
		best := 0
		for i := 1; i < len(remainders); i++ {
			if remainders[i] > remainders[best] {
				best = i
			}
		}
		cells[best]++
		remainders[best] = -1
	}

	return strings.Repeat(string(barHome), cells[0]) +
		strings.Repeat(string(barDraw), cells[1]) +
		strings.Repeat(string(barAway), cells[2])
}
