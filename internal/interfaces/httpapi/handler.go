package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchboard/internal/domain/match"
	"github.com/riskibarqy/matchboard/internal/platform/logging"
	"github.com/riskibarqy/matchboard/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LeagueLister lists the leagues known to the match API.
type LeagueLister interface {
	ListLeagues(ctx context.Context) ([]string, error)
}

type Handler struct {
	registry  *usecase.BoardRegistry
	leagues   LeagueLister
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(registry *usecase.BoardRegistry, leagues LeagueLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		registry:  registry,
		leagues:   leagues,
		logger:    logger,
		validator: newValidator(),
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type createBoardRequest struct {
	League string `json:"league" validate:"max=128"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=1000"`
}

type setLeagueRequest struct {
	League string `json:"league" validate:"max=128"`
}

type setSeasonRequest struct {
	Season string `json:"season" validate:"required,max=32"`
}

type setLimitRequest struct {
	Limit int `json:"limit" validate:"required,min=1,max=1000"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	if h.leagues == nil {
		writeError(ctx, w, fmt.Errorf("%w: league listing is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	leagues, err := h.leagues.ListLeagues(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	if leagues == nil {
		leagues = []string{}
	}

	writeSuccess(ctx, w, http.StatusOK, leagues)
}

func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateBoard")
	defer span.End()

	var req createBoardRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	id, board, err := h.registry.Create(ctx, req.League, req.Limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.respondBoard(ctx, w, r, http.StatusCreated, id, board)
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBoard")
	defer span.End()

	id, board, err := h.boardFromPath(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.respondBoard(ctx, w, r, http.StatusOK, id, board)
}

func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteBoard")
	defer span.End()

	id := r.PathValue("boardID")
	span.SetAttributes(attribute.String("board.id", id))
	if err := h.registry.Delete(id); err != nil {
		writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetBoardLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetBoardLeague")
	defer span.End()

	id, board, err := h.boardFromPath(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setLeagueRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	board.SetLeague(ctx, req.League)
	h.respondBoard(ctx, w, r, http.StatusOK, id, board)
}

func (h *Handler) SetBoardSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetBoardSeason")
	defer span.End()

	id, board, err := h.boardFromPath(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setSeasonRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := board.SetSeason(ctx, match.Season(req.Season)); err != nil {
		writeError(ctx, w, err)
		return
	}
	h.respondBoard(ctx, w, r, http.StatusOK, id, board)
}

func (h *Handler) SetBoardLimit(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetBoardLimit")
	defer span.End()

	id, board, err := h.boardFromPath(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setLimitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := board.SetLimit(ctx, req.Limit); err != nil {
		writeError(ctx, w, err)
		return
	}
	h.respondBoard(ctx, w, r, http.StatusOK, id, board)
}

func (h *Handler) RefreshBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshBoard")
	defer span.End()

	id, board, err := h.boardFromPath(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	board.Refresh(ctx)
	h.respondBoard(ctx, w, r, http.StatusAccepted, id, board)
}

func (h *Handler) PageBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PageBoard")
	defer span.End()

	id, board, err := h.boardFromPath(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	kind, err := usecase.ParseCollectionKind(r.PathValue("collection"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	delta, err := parseDirection(r.PathValue("direction"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if _, err := board.Advance(kind, delta); err != nil {
		writeError(ctx, w, err)
		return
	}
	h.respondBoard(ctx, w, r, http.StatusOK, id, board)
}

func (h *Handler) boardFromPath(ctx context.Context, r *http.Request) (string, *usecase.Board, error) {
	id := r.PathValue("boardID")
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("board.id", id))
	board, err := h.registry.Get(id)
	return id, board, err
}

// respondBoard writes the board snapshot. With ?wait=true it first blocks
// until the fetches started by the request have settled or the client goes
// away, whichever happens first.
func (h *Handler) respondBoard(ctx context.Context, w http.ResponseWriter, r *http.Request, status int, id string, board *usecase.Board) {
	if wantsWait(r) {
		if err := waitForBoard(ctx, board); err != nil {
			h.logger.WarnContext(ctx, "board wait interrupted", "board_id", id, "error", err)
		}
	}

	writeSuccess(ctx, w, status, boardToDTO(ctx, id, board.Snapshot()))
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			return &fieldError{fields: fields}
		}
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeBody(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func parseDirection(raw string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "next":
		return 1, nil
	case "prev":
		return -1, nil
	default:
		return 0, fmt.Errorf("%w: direction must be next or prev, got %q", usecase.ErrInvalidInput, raw)
	}
}

func wantsWait(r *http.Request) bool {
	raw := r.URL.Query().Get("wait")
	if raw == "" {
		return false
	}
	wait, err := strconv.ParseBool(raw)
	return err == nil && wait
}

func waitForBoard(ctx context.Context, board *usecase.Board) error {
	select {
	case <-board.Settled():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
