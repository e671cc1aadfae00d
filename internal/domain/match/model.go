package match

import (
	"strconv"
	"strings"
	"time"
)

const (
	StatusNotStarted = "NS"
	StatusFinished   = "FT"
)

const (
	ProbSourceLive     = "live"
	ProbSourcePrematch = "prematch"
)

// Season scopes a league's fixtures to one competition year.
type Season string

func (s Season) String() string {
	return string(s)
}

func (s Season) IsZero() bool {
	return strings.TrimSpace(string(s)) == ""
}

// Match represents one fixture as returned by the match data API.
type Match struct {
	FixtureID   string
	HomeTeam    string
	AwayTeam    string
	HomeGoals   *int
	AwayGoals   *int
	Date        string
	League      string
	Season      Season
	Status      string
	ProbHomeWin *float64
	ProbDraw    *float64
	ProbAwayWin *float64
	ProbSource  string
	PredictedAt *time.Time

	// ParsedDate is the zero time when Date is missing or unparsable.
	ParsedDate time.Time
}

// Key returns the fixture id or, when the API omitted it, a hash of the
// fields that identify a fixture.
func (m Match) Key() string {
	if m.FixtureID != "" {
		return m.FixtureID
	}
	return fallbackKey(m.League, m.Season, m.HomeTeam, m.AwayTeam, m.Date)
}

func (m Match) HasDate() bool {
	return !m.ParsedDate.IsZero()
}

func (m Match) IsFinished() bool {
	return m.Status == StatusFinished
}

func (m Match) IsUpcoming() bool {
	return m.Status == StatusNotStarted
}

// IsLive reports whether the status is an in-progress code. The set of live
// codes is provider defined, so anything that is neither finished nor not
// started counts.
func (m Match) IsLive() bool {
	return IsLiveStatus(m.Status)
}

func IsLiveStatus(status string) bool {
	status = strings.TrimSpace(status)
	return status != "" && status != StatusFinished && status != StatusNotStarted
}

func (m Match) Probabilities() Fractions {
	return NormalizeProbabilities(m.ProbHomeWin, m.ProbDraw, m.ProbAwayWin)
}

func (m Match) HomeScoreText() string {
	return scoreText(m.HomeGoals)
}

func (m Match) AwayScoreText() string {
	return scoreText(m.AwayGoals)
}

// Leader returns "home" or "away" for the side ahead, empty when level or
// when the score is unknown.
func (m Match) Leader() string {
	if m.HomeGoals == nil || m.AwayGoals == nil {
		return ""
	}
	switch {
	case *m.HomeGoals > *m.AwayGoals:
		return "home"
	case *m.HomeGoals < *m.AwayGoals:
		return "away"
	default:
		return ""
	}
}

// DisplayDate formats the kickoff like "01 Mar 2023, 15:00". Unparsable
// dates are shown verbatim.
func (m Match) DisplayDate() string {
	if !m.HasDate() {
		return m.Date
	}
	return m.ParsedDate.Format("02 Jan 2006, 15:04")
}

func scoreText(goals *int) string {
	if goals == nil {
		return "-"
	}
	return strconv.Itoa(*goals)
}
