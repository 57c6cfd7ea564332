package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"
const requestIDKey = "request_id"

// requestLogger tags every request with an id (the caller's, or a fresh uuid) and logs
// one line per request once the handler chain returns.
func requestLogger(logger *slog.Logger) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		started := time.Now()
		requestID := strings.TrimSpace(string(ctx.GetHeader(requestIDHeader)))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		ctx.Set(requestIDKey, requestID)
		ctx.Response.Header.Set(requestIDHeader, requestID)

		ctx.Next(c)

		status := ctx.Response.StatusCode()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		logger.Log(c, level, "http request",
			"request_id", requestID,
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"status", status,
			"latency", time.Since(started),
			"player_id", strings.TrimSpace(string(ctx.GetHeader(playerIDHeader))),
		)
	}
}

func requestIDOf(ctx *app.RequestContext) string {
	return ctx.GetString(requestIDKey)
}
