package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/matchboard/internal/domain/match"
	matchmock "github.com/riskibarqy/matchboard/internal/mocks/domain/match"
	"github.com/stretchr/testify/mock"
)

func TestSeasonService_Resolve_PicksFirstSeason(t *testing.T) {
	t.Parallel()

	source := matchmock.NewSource(t)
	service := NewSeasonService(source, nil)

	source.
		On("ListSeasons", mock.Anything, "Premier League").
		Return([]match.Season{"2024", "", "2023", "2024", "2022"}, nil).
		Once()

	got, err := service.Resolve(context.Background(), " Premier League ")
	if err != nil {
		t.Fatalf("resolve seasons: %v", err)
	}
	if got.Active != "2024" {
		t.Fatalf("expected newest season to be active, got %q", got.Active)
	}
	want := []match.Season{"2024", "2023", "2022"}
	if len(got.Seasons) != len(want) {
		t.Fatalf("unexpected seasons: %v", got.Seasons)
	}
	for i := range want {
		if got.Seasons[i] != want[i] {
			t.Fatalf("unexpected season at %d: got=%s want=%s", i, got.Seasons[i], want[i])
		}
	}
}

func TestSeasonService_Resolve_EmptyListClearsActive(t *testing.T) {
	t.Parallel()

	source := matchmock.NewSource(t)
	service := NewSeasonService(source, nil)

	source.On("ListSeasons", mock.Anything, "Eredivisie").Return([]match.Season{}, nil).Once()

	got, err := service.Resolve(context.Background(), "Eredivisie")
	if err != nil {
		t.Fatalf("resolve seasons: %v", err)
	}
	if !got.Active.IsZero() || len(got.Seasons) != 0 {
		t.Fatalf("expected empty resolution, got %+v", got)
	}
}

func TestSeasonService_Resolve_FailureDegrades(t *testing.T) {
	t.Parallel()

	source := matchmock.NewSource(t)
	service := NewSeasonService(source, nil)

	upstream := errors.New("connection refused")
	source.On("ListSeasons", mock.Anything, "Bundesliga").Return(nil, upstream).Once()

	got, err := service.Resolve(context.Background(), "Bundesliga")
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(got.Seasons) != 0 || !got.Active.IsZero() {
		t.Fatalf("expected empty resolution on failure, got %+v", got)
	}
}

func TestSeasonService_Resolve_EmptyLeagueIsNoop(t *testing.T) {
	t.Parallel()

	source := matchmock.NewSource(t)
	service := NewSeasonService(source, nil)

	if _, err := service.Resolve(context.Background(), ""); !errors.Is(err, ErrMissingSelection) {
		t.Fatalf("expected ErrMissingSelection, got %v", err)
	}
	source.AssertNotCalled(t, "ListSeasons", mock.Anything, mock.Anything)
}
