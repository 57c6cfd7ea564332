package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"fiefdom/internal/app/action"
	"fiefdom/internal/app/journal"
	"fiefdom/internal/app/ports"
	"fiefdom/internal/app/status"
	"fiefdom/internal/domain/activity"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const playerIDHeader = "X-Player-ID"

var (
	ErrMissingPlayerID = errors.New("missing x-player-id header")
	ErrInvalidJSON     = errors.New("invalid json")
)

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

type Handler struct {
	ActionUC  action.UseCase
	StatusUC  status.UseCase
	JournalUC journal.UseCase
	KPI       kpiSnapshotProvider
	Logger    *slog.Logger
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(requestLogger(h.logger()), corsMiddleware())

	s.GET("/healthz", h.healthz)

	q := s.Group("/api/queue")
	q.POST("/start", h.startQueue)
	q.POST("/cancel", h.cancelQueue)
	q.POST("/dismiss", h.dismissQueue)
	q.GET("/status", h.queueStatus)

	s.POST("/api/actions/:kind/attempt", h.attempt)

	p := s.Group("/api/player")
	p.GET("/status", h.playerStatus)
	p.GET("/journal", h.journal)

	s.GET("/ops/kpi", h.kpi)
}

type startRequest struct {
	ActionType   string          `json:"action_type"`
	ActionParams activity.Params `json:"action_params"`
	Total        int             `json:"total"`
}

type dismissRequest struct {
	QueueID int64 `json:"queue_id"`
}

type attemptRequest struct {
	Target       string          `json:"target"`
	LocationType string          `json:"location_type"`
	LocationID   int64           `json:"location_id"`
	Params       activity.Params `json:"params"`
}

func (h Handler) healthz(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"status": "ok"})
}

func (h Handler) startQueue(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var body startRequest
	if err := decodeJSON(ctx, &body); err != nil {
		h.writeError(ctx, err)
		return
	}
	resp, err := h.ActionUC.Start(c, action.StartRequest{
		PlayerID:   playerID,
		ActionType: body.ActionType,
		Params:     body.ActionParams,
		Total:      body.Total,
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"success":  true,
		"message":  resp.Message,
		"queue":    resp.Queue,
		"resolved": nonNil(resp.Resolved),
	})
}

func (h Handler) cancelQueue(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	resp, err := h.ActionUC.Cancel(c, playerID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"success": true,
		"message": resp.Message,
		"queue":   resp.Queue,
	})
}

func (h Handler) dismissQueue(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var body dismissRequest
	if err := decodeJSON(ctx, &body); err != nil {
		h.writeError(ctx, err)
		return
	}
	resp, err := h.ActionUC.Dismiss(c, playerID, body.QueueID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"success": true,
		"message": resp.Message,
	})
}

func (h Handler) queueStatus(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	resp, err := h.ActionUC.Poll(c, playerID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"success":  true,
		"active":   resp.Active,
		"resolved": nonNil(resp.Resolved),
		"finished": resp.Finished,
	})
}

func (h Handler) attempt(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var body attemptRequest
	if err := decodeJSON(ctx, &body); err != nil {
		h.writeError(ctx, err)
		return
	}
	resp, err := h.ActionUC.Attempt(c, action.AttemptRequest{
		PlayerID: playerID,
		Kind:     ctx.Param("kind"),
		Target:   body.Target,
		Location: action.LocationOf(body.LocationType, body.LocationID),
		Params:   body.Params,
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) playerStatus(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	resp, err := h.StatusUC.Execute(c, status.Request{PlayerID: playerID})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, struct {
		Success bool `json:"success"`
		status.Response
	}{Success: true, Response: resp})
}

func (h Handler) journal(c context.Context, ctx *app.RequestContext) {
	playerID, err := requirePlayer(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	req := journal.Request{PlayerID: playerID}
	if raw := string(ctx.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(ctx, journal.ErrInvalidRequest)
			return
		}
		req.Limit = limit
	}
	for _, bound := range []struct {
		key string
		dst *int64
	}{{"occurred_from", &req.OccurredFrom}, {"occurred_to", &req.OccurredTo}} {
		raw := string(ctx.Query(bound.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(ctx, journal.ErrInvalidRequest)
			return
		}
		*bound.dst = v
	}
	if types := string(ctx.Query("types")); types != "" {
		req.Types = strings.Split(types, ",")
	}
	resp, err := h.JournalUC.Execute(c, req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, struct {
		Success bool `json:"success"`
		journal.Response
	}{Success: true, Response: resp})
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured", "")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func requirePlayer(ctx *app.RequestContext) (string, error) {
	playerID := strings.TrimSpace(string(ctx.GetHeader(playerIDHeader)))
	if playerID == "" {
		return "", ErrMissingPlayerID
	}
	return playerID, nil
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return ErrInvalidJSON
	}
	return nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// writeError maps expected outcomes to 422 with a machine-readable code; anything else is
// logged and reported as a generic 500.
func (h Handler) writeError(ctx *app.RequestContext, err error) {
	var verr *action.ValidationError
	var perr *action.PreconditionError
	switch {
	case errors.As(err, &verr):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, verr.Code, err.Error(), verr.Field)
	case errors.As(err, &perr):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, string(perr.Code), perr.Message, "")
	case errors.Is(err, ErrMissingPlayerID):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, action.CodeBadRequest, err.Error(), playerIDHeader)
	case errors.Is(err, ErrInvalidJSON),
		errors.Is(err, status.ErrInvalidRequest),
		errors.Is(err, journal.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, action.CodeBadRequest, err.Error(), "")
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, string(action.CodeNotFound), "player not found", "")
	default:
		h.logger().Error("request failed",
			"request_id", requestIDOf(ctx),
			"path", string(ctx.Path()),
			"err", err,
		)
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "Something went wrong. Please try again.", "")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message, field string) {
	detail := map[string]string{"code": code}
	if field != "" {
		detail["field"] = field
	}
	ctx.JSON(status, map[string]any{
		"success": false,
		"message": message,
		"error":   detail,
	})
}

func (h Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
