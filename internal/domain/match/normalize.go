package match

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRecord is one match object as decoded from the API, before any typing.
type RawRecord map[string]any

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Normalize converts a raw API record into a Match. It never fails: fields
// that are missing or of the wrong type are left at their zero value, and
// goals stay nil so "not played" is distinguishable from "0 goals".
func Normalize(raw RawRecord) Match {
	date := getString(raw, "date")
	m := Match{
		FixtureID:   getIDString(raw, "fixture_id"),
		HomeTeam:    getString(raw, "home_team"),
		AwayTeam:    getString(raw, "away_team"),
		HomeGoals:   getOptionalInt(raw, "home_goals"),
		AwayGoals:   getOptionalInt(raw, "away_goals"),
		Date:        date,
		League:      getString(raw, "league"),
		Season:      Season(getIDString(raw, "season")),
		Status:      strings.TrimSpace(getString(raw, "status")),
		ProbHomeWin: getOptionalNumber(raw, "prob_home_win"),
		ProbDraw:    getOptionalNumber(raw, "prob_draw"),
		ProbAwayWin: getOptionalNumber(raw, "prob_away_win"),
		ProbSource:  strings.ToLower(getString(raw, "prob_source")),
		PredictedAt: ParseDate(getString(raw, "created_at")),
	}
	if parsed := ParseDate(date); parsed != nil {
		m.ParsedDate = *parsed
	}
	return m
}

func NormalizeAll(raws []RawRecord) []Match {
	out := make([]Match, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// ParseDate accepts RFC 3339 and the zone-less ISO forms produced by the API
// backend. Zone-less values are read as UTC.
func ParseDate(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

// SeasonFromValue coerces a JSON season value (string or number) into a
// Season. Unsupported values yield the zero Season.
func SeasonFromValue(v any) Season {
	return Season(stringify(v))
}

func getString(src RawRecord, key string) string {
	if src == nil {
		return ""
	}
	value, ok := src[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func getIDString(src RawRecord, key string) string {
	if src == nil {
		return ""
	}
	return stringify(src[key])
}

func stringify(raw any) string {
	switch typed := raw.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return ""
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case json.Number:
		return typed.String()
	default:
		return ""
	}
}

func getOptionalInt(src RawRecord, key string) *int {
	if src == nil {
		return nil
	}
	var value int
	switch typed := src[key].(type) {
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) || typed != math.Trunc(typed) {
			return nil
		}
		value = int(typed)
	case int:
		value = typed
	case int64:
		value = int(typed)
	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			value = int(parsed)
			break
		}
		parsed, err := typed.Float64()
		if err != nil || math.IsInf(parsed, 0) || parsed != math.Trunc(parsed) {
			return nil
		}
		value = int(parsed)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return nil
		}
		value = parsed
	default:
		return nil
	}
	return &value
}

// getOptionalNumber only accepts JSON numbers; probability strings are
// treated as missing.
func getOptionalNumber(src RawRecord, key string) *float64 {
	if src == nil {
		return nil
	}
	var value float64
	switch typed := src[key].(type) {
	case float64:
		value = typed
	case float32:
		value = float64(typed)
	case int:
		value = float64(typed)
	case int64:
		value = float64(typed)
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return nil
		}
		value = parsed
	default:
		return nil
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}
