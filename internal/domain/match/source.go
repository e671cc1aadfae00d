package match

import "context"

// Query selects matches of one league and season from the match API.
type Query struct {
	League    string
	Season    Season
	Status    string
	Limit     int
	WithProbs bool
}

// Source exposes the read operations of the remote match data API.
type Source interface {
	ListLeagues(ctx context.Context) ([]string, error)
	ListSeasons(ctx context.Context, league string) ([]Season, error)
	ListMatches(ctx context.Context, query Query) ([]RawRecord, error)
	ListLivePredictions(ctx context.Context, limit int) ([]RawRecord, error)
}
