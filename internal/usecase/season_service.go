package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/matchboard/internal/domain/match"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// SeasonResolution is the season list of a league and the season selected by
// default.
type SeasonResolution struct {
	Seasons []match.Season
	Active  match.Season
}

type SeasonService struct {
	source match.Source
	logger *logging.Logger
}

func NewSeasonService(source match.Source, logger *logging.Logger) *SeasonService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SeasonService{
		source: source,
		logger: logger,
	}
}

// Resolve loads the seasons of league and picks the first one, which the API
// orders newest first. A failed lookup is logged and degrades to an empty
// resolution; the error is still returned so callers can count it.
func (s *SeasonService) Resolve(ctx context.Context, league string) (SeasonResolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.Resolve", attribute.String("match.league", league))
	defer span.End()

	league = strings.TrimSpace(league)
	if league == "" {
		return SeasonResolution{}, ErrMissingSelection
	}

	items, err := s.source.ListSeasons(ctx, league)
	if err != nil {
		s.logger.WarnContext(ctx, "resolve seasons failed", "league", league, "error", err)
		return SeasonResolution{}, fmt.Errorf("list seasons league=%s: %w", league, err)
	}

	seasons := make([]match.Season, 0, len(items))
	seen := make(map[match.Season]struct{}, len(items))
	for _, item := range items {
		season := match.Season(strings.TrimSpace(item.String()))
		if season.IsZero() {
			continue
		}
		if _, ok := seen[season]; ok {
			continue
		}
		seen[season] = struct{}{}
		seasons = append(seasons, season)
	}

	out := SeasonResolution{Seasons: seasons}
	if len(seasons) > 0 {
		out.Active = seasons[0]
	}

	s.logger.DebugContext(ctx, "seasons resolved", "league", league, "count", len(seasons), "active", out.Active)
	return out, nil
}
