package httpapi

import (
	"context"
	"time"

	"github.com/riskibarqy/matchboard/internal/domain/match"
	"github.com/riskibarqy/matchboard/internal/usecase"
)

type boardDTO struct {
	ID        string        `json:"id"`
	League    string        `json:"league"`
	Seasons   []string      `json:"seasons"`
	Season    string        `json:"season"`
	Limit     int           `json:"limit"`
	Phase     string        `json:"phase"`
	Finished  collectionDTO `json:"finished"`
	Upcoming  collectionDTO `json:"upcoming"`
	Live      collectionDTO `json:"live"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
}

type collectionDTO struct {
	Kind       string     `json:"kind"`
	Items      []matchDTO `json:"items"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	HasPrev    bool       `json:"has_prev"`
	HasNext    bool       `json:"has_next"`
	Loading    bool       `json:"loading"`
	Message    string     `json:"message,omitempty"`
}

type matchDTO struct {
	Key           string            `json:"key"`
	FixtureID     string            `json:"fixture_id,omitempty"`
	League        string            `json:"league"`
	Season        string            `json:"season"`
	Status        string            `json:"status"`
	HomeTeam      string            `json:"home_team"`
	AwayTeam      string            `json:"away_team"`
	HomeGoals     *int              `json:"home_goals"`
	AwayGoals     *int              `json:"away_goals"`
	Score         string            `json:"score"`
	Leader        string            `json:"leader,omitempty"`
	Date          string            `json:"date"`
	DisplayDate   string            `json:"display_date"`
	Probabilities *probabilitiesDTO `json:"probabilities,omitempty"`
	PredictedAt   *time.Time        `json:"predicted_at,omitempty"`
}

type probabilitiesDTO struct {
	Home        float64 `json:"home"`
	Draw        float64 `json:"draw"`
	Away        float64 `json:"away"`
	HomePercent string  `json:"home_percent"`
	DrawPercent string  `json:"draw_percent"`
	AwayPercent string  `json:"away_percent"`
	Source      string  `json:"source,omitempty"`
}

func boardToDTO(ctx context.Context, id string, state usecase.BoardState) boardDTO {
	ctx, span := startSpan(ctx, "httpapi.boardToDTO")
	defer span.End()

	seasons := make([]string, 0, len(state.Seasons))
	for _, season := range state.Seasons {
		seasons = append(seasons, season.String())
	}

	out := boardDTO{
		ID:       id,
		League:   state.League,
		Seasons:  seasons,
		Season:   state.Season.String(),
		Limit:    state.Limit,
		Phase:    string(state.Phase),
		Finished: collectionToDTO(state.Finished),
		Upcoming: collectionToDTO(state.Upcoming),
		Live:     collectionToDTO(state.Live),
	}
	if !state.UpdatedAt.IsZero() {
		updatedAt := state.UpdatedAt
		out.UpdatedAt = &updatedAt
	}
	return out
}

func collectionToDTO(state usecase.CollectionState) collectionDTO {
	items := make([]matchDTO, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, matchToDTO(item))
	}

	return collectionDTO{
		Kind:       string(state.Kind),
		Items:      items,
		Total:      state.Total,
		Page:       state.Page + 1,
		TotalPages: state.TotalPages,
		HasPrev:    state.HasPrev,
		HasNext:    state.HasNext,
		Loading:    state.Loading,
		Message:    state.Error,
	}
}

func matchToDTO(m match.Match) matchDTO {
	out := matchDTO{
		Key:         m.Key(),
		FixtureID:   m.FixtureID,
		League:      m.League,
		Season:      m.Season.String(),
		Status:      m.Status,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		HomeGoals:   m.HomeGoals,
		AwayGoals:   m.AwayGoals,
		Score:       m.HomeScoreText() + " - " + m.AwayScoreText(),
		Leader:      m.Leader(),
		Date:        m.Date,
		DisplayDate: m.DisplayDate(),
		PredictedAt: m.PredictedAt,
	}

	if fractions := m.Probabilities(); !fractions.IsZero() {
		out.Probabilities = &probabilitiesDTO{
			Home:        fractions.Home,
			Draw:        fractions.Draw,
			Away:        fractions.Away,
			HomePercent: match.Percent(fractions.Home),
			DrawPercent: match.Percent(fractions.Draw),
			AwayPercent: match.Percent(fractions.Away),
			Source:      m.ProbSource,
		}
	}
	return out
}
