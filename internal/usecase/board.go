package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/matchboard/internal/domain/match"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultLiveWindow = 6

type BoardPhase string

const (
	BoardPhaseIdle            BoardPhase = "idle"
	BoardPhaseResolvingSeason BoardPhase = "resolving-season"
	BoardPhaseReady           BoardPhase = "ready"
)

const (
	FetchOutcomeOK    = "ok"
	FetchOutcomeEmpty = "empty"
	FetchOutcomeError = "error"
)

// Executor runs board work asynchronously. *ants.Pool satisfies it.
type Executor interface {
	Submit(task func()) error
}

// BoardRecorder receives fetch telemetry.
type BoardRecorder interface {
	ObserveFetch(kind CollectionKind, outcome string, elapsed time.Duration)
	ObserveStale(kind CollectionKind)
}

type BoardConfig struct {
	PageSize   int
	LiveWindow int
	Limit      int
	// Executor runs the collection fetches. Fetch tasks never submit
	// further work, so a bounded blocking pool always drains.
	Executor Executor
	// LookupExecutor runs season lookups, which hand their follow-up fetches
	// to Executor. It must not be the same bounded pool as Executor. Nil
	// starts a goroutine per lookup.
	LookupExecutor Executor
	Recorder       BoardRecorder
	Logger         *logging.Logger
	// OnChange is called with a fresh snapshot after every applied
	// transition. It runs on the goroutine that applied the change.
	OnChange func(BoardState)
}

// CollectionState is the display-ready view of one collection: the current
// page (or live window) plus its status.
type CollectionState struct {
	Kind       CollectionKind `json:"kind"`
	Items      []match.Match  `json:"-"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	HasPrev    bool           `json:"has_prev"`
	HasNext    bool           `json:"has_next"`
	Loading    bool           `json:"loading"`
	Error      string         `json:"error"`
}

type BoardState struct {
	League    string
	Seasons   []match.Season
	Season    match.Season
	Limit     int
	Phase     BoardPhase
	Finished  CollectionState
	Upcoming  CollectionState
	Live      CollectionState
	UpdatedAt time.Time
}

type collectionSlot struct {
	kind    CollectionKind
	matches []match.Match
	loading bool
	err     string
	pager   *Pager
}

func (s *collectionSlot) clear() {
	s.matches = nil
	s.loading = false
	s.err = ""
	if s.pager != nil {
		s.pager.Reset()
	}
}

// Board coordinates the season lookup and the three collection fetches of
// one viewer. Every dispatched request carries the generation it was issued
// under; a result whose generation is no longer current is dropped, so a
// slow response for an old league or season never overwrites newer state.
// In-flight requests are not cancelled.
type Board struct {
	seasonSvc     *SeasonService
	collectionSvc *MatchCollectionService
	executor      Executor
	lookups       Executor
	recorder      BoardRecorder
	logger        *logging.Logger
	onChange      func(BoardState)
	pageSize      int
	liveWindow    int
	now           func() time.Time

	inflight inflightTracker

	mu        sync.Mutex
	league    string
	seasons   []match.Season
	season    match.Season
	limit     int
	phase     BoardPhase
	seasonGen uint64
	fetchGen  uint64
	finished  collectionSlot
	upcoming  collectionSlot
	live      collectionSlot
	updatedAt time.Time
}

func NewBoard(seasonSvc *SeasonService, collectionSvc *MatchCollectionService, cfg BoardConfig) *Board {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	liveWindow := cfg.LiveWindow
	if liveWindow <= 0 {
		liveWindow = DefaultLiveWindow
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	executor := cfg.Executor
	if executor == nil {
		executor = goExecutor{}
	}
	lookups := cfg.LookupExecutor
	if lookups == nil {
		lookups = goExecutor{}
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopBoardRecorder{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	finishedPager := NewPager(pageSize)
	upcomingPager := NewPager(pageSize)

	return &Board{
		seasonSvc:     seasonSvc,
		collectionSvc: collectionSvc,
		executor:      executor,
		lookups:       lookups,
		recorder:      recorder,
		logger:        logger,
		onChange:      cfg.OnChange,
		pageSize:      pageSize,
		liveWindow:    liveWindow,
		now:           time.Now,
		limit:         limit,
		phase:         BoardPhaseIdle,
		finished:      collectionSlot{kind: CollectionFinished, pager: &finishedPager},
		upcoming:      collectionSlot{kind: CollectionUpcoming, pager: &upcomingPager},
		live:          collectionSlot{kind: CollectionLive},
	}
}

// SetLeague switches the board to another league. All collection state is
// dropped immediately and the season list is resolved again. An empty
// league returns the board to idle.
func (b *Board) SetLeague(ctx context.Context, league string) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Board.SetLeague", attribute.String("match.league", league))
	defer span.End()

	league = strings.TrimSpace(league)

	b.mu.Lock()
	if league == b.league && b.phase != BoardPhaseIdle {
		b.mu.Unlock()
		return
	}
	b.league = league
	b.resetLocked()
	if league == "" {
		b.phase = BoardPhaseIdle
		b.touchLocked()
		state := b.snapshotLocked()
		b.mu.Unlock()
		b.notify(state)
		return
	}
	task := b.resolveLocked(ctx)
	state := b.snapshotLocked()
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "board league changed", "league", league)
	b.notify(state)
	task()
}

// SetSeason selects another season of the current league and refetches
// every collection. The season list itself is not resolved again.
func (b *Board) SetSeason(ctx context.Context, season match.Season) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.Board.SetSeason", attribute.String("match.season", season.String()))
	defer span.End()

	season = match.Season(strings.TrimSpace(season.String()))

	b.mu.Lock()
	switch {
	case b.league == "":
		b.mu.Unlock()
		return fmt.Errorf("%w: select a league before a season", ErrInvalidInput)
	case b.phase == BoardPhaseResolvingSeason:
		b.mu.Unlock()
		return fmt.Errorf("%w: seasons of %s are still loading", ErrInvalidInput, b.league)
	case !season.IsZero() && len(b.seasons) > 0 && !slices.Contains(b.seasons, season):
		b.mu.Unlock()
		return fmt.Errorf("%w: season %s is not available for %s", ErrInvalidInput, season, b.league)
	case season == b.season:
		b.mu.Unlock()
		return nil
	}

	b.season = season
	if season.IsZero() {
		b.finished.clear()
		b.upcoming.clear()
	}
	tasks := b.fetchAllLocked(ctx)
	state := b.snapshotLocked()
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "board season changed", "league", state.League, "season", season)
	b.notify(state)
	runAll(tasks)
	return nil
}

// SetLimit changes the row cap of the finished/upcoming requests and
// refetches.
func (b *Board) SetLimit(ctx context.Context, limit int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.Board.SetLimit", attribute.Int("match.limit", limit))
	defer span.End()

	if limit <= 0 || limit > MaxMatchLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, MaxMatchLimit)
	}

	b.mu.Lock()
	if limit == b.limit {
		b.mu.Unlock()
		return nil
	}
	b.limit = limit
	if b.phase != BoardPhaseReady {
		b.mu.Unlock()
		return nil
	}
	tasks := b.fetchAllLocked(ctx)
	state := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(state)
	runAll(tasks)
	return nil
}

// Refresh retries the current selection: the season lookup when it came
// back empty, the collection fetches otherwise.
func (b *Board) Refresh(ctx context.Context) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Board.Refresh")
	defer span.End()

	b.mu.Lock()
	if b.league == "" || b.phase == BoardPhaseResolvingSeason {
		b.mu.Unlock()
		return
	}

	var tasks []func()
	if len(b.seasons) == 0 && b.season.IsZero() {
		b.resetLocked()
		tasks = []func(){b.resolveLocked(ctx)}
	} else {
		tasks = b.fetchAllLocked(ctx)
	}
	state := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(state)
	runAll(tasks)
}

// Advance moves the page cursor of the finished or upcoming collection.
func (b *Board) Advance(kind CollectionKind, delta int) (CollectionState, error) {
	b.mu.Lock()
	slot := b.slotLocked(kind)
	if slot == nil || slot.pager == nil {
		b.mu.Unlock()
		return CollectionState{}, fmt.Errorf("%w: collection %q is not paginated", ErrInvalidInput, kind)
	}
	before := slot.pager.Page()
	slot.pager.Advance(delta, len(slot.matches))
	changed := slot.pager.Page() != before
	view := b.collectionStateLocked(slot)
	var state BoardState
	if changed {
		b.touchLocked()
		state = b.snapshotLocked()
	}
	b.mu.Unlock()

	if changed {
		b.notify(state)
	}
	return view, nil
}

func (b *Board) Snapshot() BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Wait blocks until every dispatched lookup and fetch, including those
// started by a lookup completing, has finished.
func (b *Board) Wait() {
	<-b.inflight.settled()
}

// Settled returns a channel that is closed once no lookup or fetch
// dispatched so far is still running. Work dispatched later gets a new
// channel.
func (b *Board) Settled() <-chan struct{} {
	return b.inflight.settled()
}

func (b *Board) resetLocked() {
	b.seasonGen++
	b.fetchGen++
	b.seasons = nil
	b.season = ""
	b.finished.clear()
	b.upcoming.clear()
	b.live.clear()
	b.touchLocked()
}

func (b *Board) resolveLocked(ctx context.Context) func() {
	b.phase = BoardPhaseResolvingSeason
	gen := b.seasonGen
	league := b.league
	taskCtx := context.WithoutCancel(ctx)

	return func() {
		b.dispatch(b.lookups, func() {
			var (
				resolution SeasonResolution
				err        error
			)
			var catcher panics.Catcher
			catcher.Try(func() {
				resolution, err = b.seasonSvc.Resolve(taskCtx, league)
			})
			if recovered := catcher.Recovered(); recovered != nil {
				err = recovered.AsError()
				b.logger.ErrorContext(taskCtx, "season lookup panicked", "league", league, "error", err)
			}
			b.applySeasons(taskCtx, gen, resolution, err)
		}, func(err error) {
			b.logger.ErrorContext(taskCtx, "schedule season lookup failed", "league", league, "error", err)
			b.applySeasons(taskCtx, gen, SeasonResolution{}, err)
		})
	}
}

func (b *Board) applySeasons(ctx context.Context, gen uint64, resolution SeasonResolution, err error) {
	b.mu.Lock()
	if gen != b.seasonGen {
		b.mu.Unlock()
		b.logger.DebugContext(ctx, "discard stale season lookup", "generation", gen)
		return
	}
	if err != nil {
		resolution = SeasonResolution{}
	}
	b.seasons = resolution.Seasons
	b.season = resolution.Active
	b.phase = BoardPhaseReady
	tasks := b.fetchAllLocked(ctx)
	state := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(state)
	runAll(tasks)
}

// fetchAllLocked advances the fetch generation, marks the eligible
// collections as loading and returns the dispatchers to run once the lock is
// released. Finished and upcoming need a season; live only a league.
func (b *Board) fetchAllLocked(ctx context.Context) []func() {
	b.fetchGen++
	b.touchLocked()
	if b.league == "" {
		return nil
	}

	tasks := make([]func(), 0, 3)
	if !b.season.IsZero() {
		tasks = append(tasks, b.fetchLocked(ctx, &b.finished), b.fetchLocked(ctx, &b.upcoming))
	}
	tasks = append(tasks, b.fetchLocked(ctx, &b.live))
	return tasks
}

func (b *Board) fetchLocked(ctx context.Context, slot *collectionSlot) func() {
	slot.loading = true
	slot.err = ""

	kind := slot.kind
	gen := b.fetchGen
	league := b.league
	season := b.season
	limit := b.limit
	taskCtx := context.WithoutCancel(ctx)

	return func() {
		b.dispatch(b.executor, func() {
			started := b.now()
			var (
				result CollectionResult
				err    error
			)
			var catcher panics.Catcher
			catcher.Try(func() {
				result, err = b.collectionSvc.Fetch(taskCtx, kind, league, season, limit)
			})
			if recovered := catcher.Recovered(); recovered != nil {
				err = fmt.Errorf("failed to load %s matches: %w", kind, recovered.AsError())
				b.logger.ErrorContext(taskCtx, "collection fetch panicked", "collection", kind, "league", league, "error", err)
			}
			b.applyCollection(taskCtx, kind, gen, result, err, b.now().Sub(started))
		}, func(err error) {
			b.applyCollection(taskCtx, kind, gen, CollectionResult{}, fmt.Errorf("failed to load %s matches: %w", kind, err), 0)
		})
	}
}

func (b *Board) applyCollection(ctx context.Context, kind CollectionKind, gen uint64, result CollectionResult, err error, elapsed time.Duration) {
	outcome := FetchOutcomeOK
	switch {
	case err != nil:
		outcome = FetchOutcomeError
	case result.Notice != "":
		outcome = FetchOutcomeEmpty
	}
	b.recorder.ObserveFetch(kind, outcome, elapsed)

	b.mu.Lock()
	if gen != b.fetchGen {
		b.mu.Unlock()
		b.recorder.ObserveStale(kind)
		b.logger.DebugContext(ctx, "discard stale collection result", "collection", kind, "generation", gen)
		return
	}

	slot := b.slotLocked(kind)
	slot.loading = false
	if err != nil {
		slot.matches = nil
		slot.err = err.Error()
	} else {
		slot.matches = result.Matches
		slot.err = result.Notice
	}
	if slot.pager != nil {
		slot.pager.Reset()
	}
	b.touchLocked()
	state := b.snapshotLocked()
	b.mu.Unlock()

	if err != nil {
		b.logger.WarnContext(ctx, "collection fetch failed", "collection", kind, "league", state.League, "season", state.Season, "error", err)
	}
	b.notify(state)
}

func (b *Board) dispatch(executor Executor, task func(), onReject func(error)) {
	b.inflight.add()
	err := executor.Submit(func() {
		defer b.inflight.done()
		task()
	})
	if err != nil {
		b.inflight.done()
		onReject(err)
	}
}

// inflightTracker counts dispatched tasks. Each idle to busy transition
// installs a fresh settled channel, closed when the count drops back to zero.
// The zero value is idle.
type inflightTracker struct {
	mu    sync.Mutex
	count int
	ch    chan struct{}
}

var settledChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func (f *inflightTracker) add() {
	f.mu.Lock()
	if f.count == 0 {
		f.ch = make(chan struct{})
	}
	f.count++
	f.mu.Unlock()
}

func (f *inflightTracker) done() {
	f.mu.Lock()
	f.count--
	if f.count == 0 {
		close(f.ch)
	}
	f.mu.Unlock()
}

func (f *inflightTracker) settled() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.count == 0 {
		return settledChan
	}
	return f.ch
}

func (b *Board) slotLocked(kind CollectionKind) *collectionSlot {
	switch kind {
	case CollectionFinished:
		return &b.finished
	case CollectionUpcoming:
		return &b.upcoming
	case CollectionLive:
		return &b.live
	default:
		return nil
	}
}

func (b *Board) snapshotLocked() BoardState {
	return BoardState{
		League:    b.league,
		Seasons:   slices.Clone(b.seasons),
		Season:    b.season,
		Limit:     b.limit,
		Phase:     b.phase,
		Finished:  b.collectionStateLocked(&b.finished),
		Upcoming:  b.collectionStateLocked(&b.upcoming),
		Live:      b.collectionStateLocked(&b.live),
		UpdatedAt: b.updatedAt,
	}
}

func (b *Board) collectionStateLocked(slot *collectionSlot) CollectionState {
	total := len(slot.matches)
	state := CollectionState{
		Kind:       slot.kind,
		Total:      total,
		TotalPages: 1,
		Loading:    slot.loading,
		Error:      slot.err,
	}
	if slot.pager == nil {
		window := slot.matches
		if len(window) > b.liveWindow {
			window = window[:b.liveWindow]
		}
		state.Items = slices.Clone(window)
		return state
	}

	state.Page = slot.pager.Page()
	state.TotalPages = TotalPages(total, slot.pager.Size())
	state.HasPrev = slot.pager.HasPrev()
	state.HasNext = slot.pager.HasNext(total)
	state.Items = slices.Clone(PageSlice(slot.matches, state.Page, slot.pager.Size()))
	return state
}

func (b *Board) touchLocked() {
	b.updatedAt = b.now().UTC()
}

func (b *Board) notify(state BoardState) {
	if b.onChange == nil {
		return
	}
	b.onChange(state)
}

func (s BoardState) Collection(kind CollectionKind) (CollectionState, bool) {
	switch kind {
	case CollectionFinished:
		return s.Finished, true
	case CollectionUpcoming:
		return s.Upcoming, true
	case CollectionLive:
		return s.Live, true
	default:
		return CollectionState{}, false
	}
}

func runAll(tasks []func()) {
	for _, task := range tasks {
		task()
	}
}

type goExecutor struct{}

func (goExecutor) Submit(task func()) error {
	go task()
	return nil
}

type nopBoardRecorder struct{}

func (nopBoardRecorder) ObserveFetch(CollectionKind, string, time.Duration) {}

func (nopBoardRecorder) ObserveStale(CollectionKind) {}
