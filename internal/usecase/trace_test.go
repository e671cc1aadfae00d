package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/matchboard/internal/domain/match"
)

func TestSelectionAttrs(t *testing.T) {
	t.Parallel()

	if got := selectionAttrs("Serie A", ""); len(got) != 1 || got[0].Value.AsString() != "Serie A" {
		t.Fatalf("unexpected attrs without season: %+v", got)
	}

	got := selectionAttrs("Serie A", match.Season("2023"))
	if len(got) != 2 || string(got[1].Key) != "match.season" || got[1].Value.AsString() != "2023" {
		t.Fatalf("unexpected attrs with season: %+v", got)
	}
}

func TestStartUsecaseSpan_UntracedCaller(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	got, span := startUsecaseSpan(ctx, "usecase.Board.Refresh")
	defer span.End()

	if got != ctx || span.SpanContext().IsValid() {
		t.Fatalf("expected untraced caller to get a no-op span")
	}
}
