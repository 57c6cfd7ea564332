package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"fiefdom/internal/adapter/lock"
	metricsinmem "fiefdom/internal/adapter/metrics/inmemory"
	"fiefdom/internal/adapter/repo/memory"
	"fiefdom/internal/app/action"
	"fiefdom/internal/app/journal"
	"fiefdom/internal/app/status"
	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/player"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

var handlerStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type testServer struct {
	h     *server.Hertz
	clock *testClock
	kpi   *metricsinmem.Recorder
}

func newTestServer(t *testing.T, rolls ...float64) *testServer {
	t.Helper()
	if len(rolls) == 0 {
		rolls = []float64{0.1}
	}
	clock := &testClock{now: handlerStart}
	store := memory.NewStore()
	store.SeedState(player.NewState("p-1", player.Location{Type: player.LocationVillage, ID: 1}))
	kpi := metricsinmem.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stateRepo := memory.NewPlayerStateRepo(store)
	eventRepo := memory.NewEventRepo(store)
	handler := Handler{
		ActionUC: action.UseCase{
			TxManager:  memory.NewTxManager(store),
			Locker:     lock.NewMutexMap(),
			StateRepo:  stateRepo,
			QueueRepo:  memory.NewActionQueueRepo(store),
			EventRepo:  eventRepo,
			Metrics:    kpi,
			Activities: activity.MustDefaultRegistry(),
			Roller:     activity.NewSequenceRoller(rolls...),
			Logger:     logger,
			Now:        clock.Now,
		},
		StatusUC:  status.UseCase{StateRepo: stateRepo, Now: clock.Now},
		JournalUC: journal.UseCase{Events: eventRepo},
		KPI:       kpi,
		Logger:    logger,
	}
	h := server.New()
	handler.RegisterRoutes(h)
	return &testServer{h: h, clock: clock, kpi: kpi}
}

func (s *testServer) do(method, path, playerID, body string) (int, map[string]any) {
	headers := []ut.Header{{Key: "Content-Type", Value: "application/json"}}
	if playerID != "" {
		headers = append(headers, ut.Header{Key: playerIDHeader, Value: playerID})
	}
	var reqBody *ut.Body
	if body != "" {
		reqBody = &ut.Body{Body: bytes.NewBufferString(body), Len: len(body)}
	}
	resp := ut.PerformRequest(s.h.Engine, method, path, reqBody, headers...).Result()
	out := map[string]any{}
	_ = json.Unmarshal(resp.Body(), &out)
	return resp.StatusCode(), out
}

func errorCode(body map[string]any) string {
	detail, _ := body["error"].(map[string]any)
	code, _ := detail["code"].(string)
	return code
}

func TestQueueRoutes_StartCancelDismiss(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do("POST", "/api/queue/start", "p-1", `{"action_type":"train","action_params":{"exercise":"sparring"},"total":3}`)
	if code != consts.StatusOK || body["success"] != true {
		t.Fatalf("start failed: code=%d body=%v", code, body)
	}
	queueBody, _ := body["queue"].(map[string]any)
	queueID := int64(queueBody["id"].(float64))
	if queueBody["status"] != "active" || queueBody["completed"] != float64(0) {
		t.Fatalf("unexpected queue: %v", queueBody)
	}

	code, body = s.do("POST", "/api/queue/start", "p-1", `{"action_type":"train","action_params":{"exercise":"sparring"},"total":1}`)
	if code != consts.StatusUnprocessableEntity || errorCode(body) != "already_queued" || body["success"] != false {
		t.Fatalf("expected already_queued, got code=%d body=%v", code, body)
	}

	code, body = s.do("POST", "/api/queue/cancel", "p-1", "")
	if code != consts.StatusOK || body["success"] != true {
		t.Fatalf("cancel failed: code=%d body=%v", code, body)
	}

	dismiss := `{"queue_id":` + jsonInt(queueID) + `}`
	code, body = s.do("POST", "/api/queue/dismiss", "p-1", dismiss)
	if code != consts.StatusOK || body["success"] != true {
		t.Fatalf("dismiss failed: code=%d body=%v", code, body)
	}
	code, body = s.do("POST", "/api/queue/dismiss", "p-1", dismiss)
	if code != consts.StatusUnprocessableEntity || errorCode(body) != "not_found" {
		t.Fatalf("expected not_found on second dismiss, got code=%d body=%v", code, body)
	}
}

func TestQueueStatus_ReportsProgressAndFinished(t *testing.T) {
	s := newTestServer(t)
	if code, body := s.do("POST", "/api/queue/start", "p-1", `{"action_type":"train","action_params":{"exercise":"sparring"},"total":2}`); code != consts.StatusOK {
		t.Fatalf("start failed: %v", body)
	}
	s.clock.now = handlerStart.Add(time.Hour)

	code, body := s.do("GET", "/api/queue/status", "p-1", "")
	if code != consts.StatusOK {
		t.Fatalf("status failed: code=%d body=%v", code, body)
	}
	if body["active"] != nil {
		t.Fatalf("expected no active queue, got %v", body["active"])
	}
	finished, _ := body["finished"].([]any)
	resolved, _ := body["resolved"].([]any)
	if len(finished) != 1 || len(resolved) != 2 {
		t.Fatalf("expected one finished queue and two resolved repetitions, got %d/%d", len(finished), len(resolved))
	}
}

func TestStart_ValidationErrorsCarryField(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do("POST", "/api/queue/start", "p-1", `{"action_type":"train","action_params":{"exercise":"sparring"},"total":-1}`)
	if code != consts.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	detail, _ := body["error"].(map[string]any)
	if detail["code"] != action.CodeBadRequest || detail["field"] != "total" {
		t.Fatalf("unexpected error detail: %v", detail)
	}

	code, body = s.do("POST", "/api/queue/start", "p-1", `{"action_type":"train","action_params":{"exercise":"sparring"},"total":2147483649}`)
	if code != consts.StatusUnprocessableEntity {
		t.Fatalf("oversized total must be 422, got %d body=%v", code, body)
	}
	detail, _ = body["error"].(map[string]any)
	if detail["field"] != "total" {
		t.Fatalf("unexpected error detail: %v", detail)
	}
}

func TestRequests_RejectMissingPlayerAndBadJSON(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do("POST", "/api/queue/start", "", `{}`)
	if code != consts.StatusUnprocessableEntity || errorCode(body) != action.CodeBadRequest {
		t.Fatalf("expected 422 for missing header, got code=%d body=%v", code, body)
	}

	code, body = s.do("POST", "/api/queue/start", "p-1", `{"action_type":`)
	if code != consts.StatusUnprocessableEntity || body["message"] != ErrInvalidJSON.Error() {
		t.Fatalf("expected invalid json, got code=%d body=%v", code, body)
	}
}

func TestAttempt_CaughtIsASuccessfulResponse(t *testing.T) {
	s := newTestServer(t, 0.99, 0.01)
	code, body := s.do("POST", "/api/actions/thieve/attempt", "p-1", `{"target":"farmer","location_type":"village","location_id":1}`)
	if code != consts.StatusOK {
		t.Fatalf("attempt failed: code=%d body=%v", code, body)
	}
	if body["success"] != false || body["failed"] != true || body["caught"] != true {
		t.Fatalf("expected caught failure, got %v", body)
	}
	penalty, _ := body["penalty"].(map[string]any)
	if penalty == nil {
		t.Fatalf("expected penalty in body")
	}
	if got, want := penalty["lockout_seconds"], float64(30); got != want {
		t.Fatalf("lockout mismatch: got=%v want=%v", got, want)
	}

	code, body = s.do("POST", "/api/actions/thieve/attempt", "p-1", `{"target":"farmer"}`)
	if code != consts.StatusUnprocessableEntity || errorCode(body) != "locked_out" {
		t.Fatalf("expected locked_out, got code=%d body=%v", code, body)
	}
}

func TestAttempt_WrongLocationAndUnknownKind(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do("POST", "/api/actions/thieve/attempt", "p-1", `{"target":"farmer","location_type":"town","location_id":2}`)
	if code != consts.StatusUnprocessableEntity || errorCode(body) != "wrong_location" {
		t.Fatalf("expected wrong_location, got code=%d body=%v", code, body)
	}
	code, body = s.do("POST", "/api/actions/cook/attempt", "p-1", `{"target":"bread"}`)
	if code != consts.StatusUnprocessableEntity || errorCode(body) != action.CodeBadRequest {
		t.Fatalf("expected bad_request for non-instant kind, got code=%d body=%v", code, body)
	}
}

func TestPlayerRoutes_StatusAndJournal(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do("POST", "/api/actions/train/attempt", "p-1", `{"target":"sparring"}`); code != consts.StatusOK {
		t.Fatalf("attempt failed: %d", code)
	}

	code, body := s.do("GET", "/api/player/status", "p-1", "")
	if code != consts.StatusOK || body["success"] != true {
		t.Fatalf("status failed: code=%d body=%v", code, body)
	}
	if _, ok := body["combat_level"]; !ok {
		t.Fatalf("expected combat_level in %v", body)
	}
	state, _ := body["state"].(map[string]any)
	if state["energy"] != float64(97) {
		t.Fatalf("expected energy 97 after one attempt, got %v", state["energy"])
	}

	code, body = s.do("GET", "/api/player/status", "nobody", "")
	if code != consts.StatusUnprocessableEntity || errorCode(body) != "not_found" {
		t.Fatalf("expected not_found for unknown player, got code=%d body=%v", code, body)
	}

	code, body = s.do("GET", "/api/player/journal?limit=5", "p-1", "")
	if code != consts.StatusOK {
		t.Fatalf("journal failed: code=%d body=%v", code, body)
	}
	events, _ := body["events"].([]any)
	if len(events) == 0 {
		t.Fatalf("expected journal events")
	}

	code, _ = s.do("GET", "/api/player/journal?limit=abc", "p-1", "")
	if code != consts.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad limit, got %d", code)
	}
	for _, query := range []string{"occurred_from=yesterday", "occurred_to=1.5"} {
		code, body = s.do("GET", "/api/player/journal?"+query, "p-1", "")
		if code != consts.StatusUnprocessableEntity || errorCode(body) != action.CodeBadRequest {
			t.Fatalf("expected 422 bad_request for %s, got code=%d body=%v", query, code, body)
		}
	}
	code, _ = s.do("GET", "/api/player/journal?occurred_from=0&occurred_to=9999999999", "p-1", "")
	if code != consts.StatusOK {
		t.Fatalf("expected numeric bounds to be accepted, got %d", code)
	}
}

func TestOpsRoutes(t *testing.T) {
	s := newTestServer(t)
	if code, body := s.do("GET", "/healthz", "", ""); code != consts.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz failed: code=%d body=%v", code, body)
	}
	s.do("POST", "/api/queue/cancel", "p-1", "")
	code, body := s.do("GET", "/ops/kpi", "", "")
	if code != consts.StatusOK {
		t.Fatalf("kpi failed: %d", code)
	}
	byCode, _ := body["by_rejection_code"].(map[string]any)
	if byCode["no_active_queue"] != float64(1) {
		t.Fatalf("expected no_active_queue rejection counted, got %v", body)
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	s := newTestServer(t)
	resp := ut.PerformRequest(s.h.Engine, "GET", "/healthz", nil).Result()
	if len(resp.Header.Peek(requestIDHeader)) == 0 {
		t.Fatalf("expected generated request id")
	}
	resp = ut.PerformRequest(s.h.Engine, "GET", "/healthz", nil, ut.Header{Key: requestIDHeader, Value: "req-42"}).Result()
	if got := string(resp.Header.Peek(requestIDHeader)); got != "req-42" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	resp := ut.PerformRequest(s.h.Engine, "OPTIONS", "/api/queue/start", nil).Result()
	if resp.StatusCode() != consts.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode())
	}
	if got := string(resp.Header.Peek("Access-Control-Allow-Headers")); got != corsAllowHeaders {
		t.Fatalf("allow-headers mismatch: %q", got)
	}
}

func TestWriteError_UnexpectedErrorIsGeneric(t *testing.T) {
	h := Handler{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	ctx := &app.RequestContext{}
	h.writeError(ctx, errors.New("pq: connection refused"))

	if got, want := ctx.Response.StatusCode(), consts.StatusInternalServerError; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	var body map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if bytes.Contains(ctx.Response.Body(), []byte("connection refused")) {
		t.Fatalf("internal detail leaked: %s", ctx.Response.Body())
	}
	if errorCode(body) != "internal_error" {
		t.Fatalf("unexpected code: %v", body)
	}
}

func TestWriteError_PreconditionUsesHumanMessage(t *testing.T) {
	h := Handler{}
	ctx := &app.RequestContext{}
	h.writeError(ctx, &action.PreconditionError{Code: action.CodeInsufficientResources, Message: "not enough energy"})

	if got, want := ctx.Response.StatusCode(), consts.StatusUnprocessableEntity; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	var body map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["message"] != "not enough energy" || errorCode(body) != "insufficient_resources" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
