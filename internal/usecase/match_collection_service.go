package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/matchboard/internal/domain/match"
)

const (
	DefaultMatchLimit = 300
	MaxMatchLimit     = 1000
	DefaultLiveLimit  = 50
)

// CollectionKind names one of the three fixture partitions shown on a board.
type CollectionKind string

const (
	CollectionFinished CollectionKind = "finished"
	CollectionUpcoming CollectionKind = "upcoming"
	CollectionLive     CollectionKind = "live"
)

func ParseCollectionKind(raw string) (CollectionKind, error) {
	switch kind := CollectionKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case CollectionFinished, CollectionUpcoming, CollectionLive:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown collection %q", ErrInvalidInput, raw)
	}
}

// CollectionResult is one fetched partition. Notice is set when the request
// succeeded but nothing matched.
type CollectionResult struct {
	Kind    CollectionKind
	Matches []match.Match
	Notice  string
}

type MatchCollectionConfig struct {
	LiveLimit int
}

type MatchCollectionService struct {
	source    match.Source
	liveLimit int
}

func NewMatchCollectionService(source match.Source, cfg MatchCollectionConfig) *MatchCollectionService {
	liveLimit := cfg.LiveLimit
	if liveLimit <= 0 {
		liveLimit = DefaultLiveLimit
	}
	return &MatchCollectionService{
		source:    source,
		liveLimit: liveLimit,
	}
}

func (s *MatchCollectionService) Fetch(ctx context.Context, kind CollectionKind, league string, season match.Season, limit int) (CollectionResult, error) {
	switch kind {
	case CollectionFinished:
		return s.FetchFinished(ctx, league, season, limit)
	case CollectionUpcoming:
		return s.FetchUpcoming(ctx, league, season, limit)
	case CollectionLive:
		return s.FetchLive(ctx, league, season)
	default:
		return CollectionResult{}, fmt.Errorf("%w: unknown collection %q", ErrInvalidInput, kind)
	}
}

func (s *MatchCollectionService) FetchFinished(ctx context.Context, league string, season match.Season, limit int) (CollectionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchCollectionService.FetchFinished", selectionAttrs(league, season)...)
	defer span.End()

	return s.fetchByStatus(ctx, CollectionFinished, match.StatusFinished, league, season, limit)
}

func (s *MatchCollectionService) FetchUpcoming(ctx context.Context, league string, season match.Season, limit int) (CollectionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchCollectionService.FetchUpcoming", selectionAttrs(league, season)...)
	defer span.End()

	return s.fetchByStatus(ctx, CollectionUpcoming, match.StatusNotStarted, league, season, limit)
}

// FetchLive narrows the cross-league live prediction feed to one league and,
// when season is set, one season. Most recent kickoff first.
func (s *MatchCollectionService) FetchLive(ctx context.Context, league string, season match.Season) (CollectionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchCollectionService.FetchLive", selectionAttrs(league, season)...)
	defer span.End()

	league = strings.TrimSpace(league)
	if league == "" {
		return CollectionResult{}, ErrMissingSelection
	}

	raws, err := s.source.ListLivePredictions(ctx, s.liveLimit)
	if err != nil {
		return CollectionResult{}, fmt.Errorf("failed to load live matches: %w", err)
	}

	items := make([]match.Match, 0, len(raws))
	for _, raw := range raws {
		m := match.Normalize(raw)
		if m.League != league {
			continue
		}
		if !season.IsZero() && m.Season != season {
			continue
		}
		if !m.IsLive() {
			continue
		}
		items = append(items, m)
	}
	sortByKickoff(items, true)

	return CollectionResult{Kind: CollectionLive, Matches: items}, nil
}

func (s *MatchCollectionService) fetchByStatus(ctx context.Context, kind CollectionKind, status, league string, season match.Season, limit int) (CollectionResult, error) {
	league = strings.TrimSpace(league)
	if league == "" || season.IsZero() {
		return CollectionResult{}, ErrMissingSelection
	}
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	raws, err := s.source.ListMatches(ctx, match.Query{
		League:    league,
		Season:    season,
		Status:    status,
		Limit:     limit,
		WithProbs: true,
	})
	if err != nil {
		return CollectionResult{}, fmt.Errorf("failed to load %s matches: %w", kind, err)
	}

	// The API is not trusted to honour the status filter.
	items := make([]match.Match, 0, len(raws))
	for _, raw := range raws {
		m := match.Normalize(raw)
		if m.Status != status {
			continue
		}
		items = append(items, m)
	}
	sortByKickoff(items, false)

	out := CollectionResult{Kind: kind, Matches: items}
	if len(items) == 0 {
		out.Notice = fmt.Sprintf("No %s matches for %s in season %s.", kind, league, season)
	}
	return out, nil
}

// sortByKickoff orders by parsed date; undated matches sort as earliest and
// ties keep API order.
func sortByKickoff(items []match.Match, descending bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if descending {
			return items[i].ParsedDate.After(items[j].ParsedDate)
		}
		return items[i].ParsedDate.Before(items[j].ParsedDate)
	})
}
