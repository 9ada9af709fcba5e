package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketmanager/internal/application/usecases/expiry"
	"ticketmanager/internal/application/usecases/inventory"
	"ticketmanager/internal/entities"
	ticketsHTTP "ticketmanager/internal/interfaces/http"
	"ticketmanager/internal/repository/memory"
)

type publisherStub struct {
	mu     sync.Mutex
	events []any
}

func (p *publisherStub) Publish(_ context.Context, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type testServer struct {
	e         *echo.Echo
	store     *memory.Store
	publisher *publisherStub
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	store := memory.NewStore()
	publisher := &publisherStub{}
	e := echo.New()

	ticketsHTTP.NewServer(
		e,
		":0",
		inventory.NewUsecase(store, store, store, publisher),
		expiry.NewDeleteExpiredTicketsUsecase(store, store, nil),
		30*24*time.Hour,
		func() bool { return true },
	)

	return testServer{e: e, store: store, publisher: publisher}
}

func (s testServer) do(t *testing.T, method, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()

	s.e.ServeHTTP(rec, req)

	var response map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	}
	return rec.Code, response
}

func (s testServer) createEvent(t *testing.T, at time.Time, tickets int) (string, []string) {
	t.Helper()

	code, body := s.do(t, http.MethodPost, "/events",
		`{"title": "Concert", "date_time": "`+at.Format(time.RFC3339)+`"}`)
	require.Equal(t, http.StatusCreated, code, body)
	eventID := body["event"].(map[string]any)["event_id"].(string)

	code, body = s.do(t, http.MethodPost, "/events/"+eventID+"/tickets",
		`{"price": "10.00", "n_tickets": `+itoa(tickets)+`}`)
	require.Equal(t, http.StatusCreated, code, body)

	return eventID, toStrings(body["ticket_ids"])
}

func TestServer_ticketLifecycle(t *testing.T) {
	s := newTestServer(t)
	eventID, _ := s.createEvent(t, time.Now().Add(24*time.Hour), 5)

	code, body := s.do(t, http.MethodPost, "/events/"+eventID+"/reservations", `{"n_tickets": 3}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(3), body["reserved_count"])
	reserved := toStrings(body["ticket_ids"])
	require.Len(t, reserved, 3)

	code, body = s.do(t, http.MethodPost, "/events/"+eventID+"/reservations", `{"n_tickets": 3}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "insufficient_inventory", body["kind"])

	code, body = s.do(t, http.MethodPost, "/tickets/purchase",
		`{"attendee_id": "att1", "ticket_ids": `+jsonList(reserved)+`}`,
		"Idempotency-Key", "purchase-1")
	require.Equal(t, http.StatusOK, code, body)
	require.Len(t, s.publisher.events, 1)
	assert.Equal(t, "purchase-1", s.publisher.events[0].(entities.TicketsPurchased_v1).Header.IdempotencyKey)

	code, body = s.do(t, http.MethodGet, "/attendees/att1/tickets", "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Len(t, body["tickets"], 3)

	code, body = s.do(t, http.MethodPost, "/attendees/tickets", `{"attendee_ids": ["att1", "att2"]}`)
	require.Equal(t, http.StatusOK, code, body)
	grouped := body["tickets"].(map[string]any)
	assert.Len(t, grouped["att1"], 3)
	assert.Len(t, grouped["att2"], 0)

	code, _ = s.do(t, http.MethodPost, "/tickets/"+reserved[0]+"/redeem", "")
	assert.Equal(t, http.StatusOK, code)

	code, body = s.do(t, http.MethodPost, "/tickets/"+reserved[0]+"/redeem", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_redeemed", body["kind"])

	code, body = s.do(t, http.MethodPost, "/tickets/info", `{"ticket_ids": `+jsonList(reserved[:1])+`}`)
	require.Equal(t, http.StatusOK, code, body)
	tickets := body["tickets"].([]any)
	require.Len(t, tickets, 1)
	assert.Equal(t, "redeemed", tickets[0].(map[string]any)["status"])
}

func TestServer_ReleaseTicketsHandler(t *testing.T) {
	s := newTestServer(t)
	eventID, _ := s.createEvent(t, time.Now().Add(24*time.Hour), 2)

	_, body := s.do(t, http.MethodPost, "/events/"+eventID+"/reservations", `{"n_tickets": 2}`)
	reserved := toStrings(body["ticket_ids"])

	code, body := s.do(t, http.MethodPost, "/tickets/release", `{"ticket_ids": `+jsonList(reserved)+`}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(2), body["released_count"])

	code, body = s.do(t, http.MethodPost, "/tickets/release", `{"ticket_ids": `+jsonList(reserved)+`}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(0), body["released_count"])
}

func TestServer_errors(t *testing.T) {
	s := newTestServer(t)
	eventID, created := s.createEvent(t, time.Now().Add(24*time.Hour), 2)

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		kind   string
	}{
		{
			name:   "malformed event id",
			method: http.MethodPost,
			path:   "/events/not-a-uuid/reservations",
			body:   `{"n_tickets": 1}`,
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "zero tickets",
			method: http.MethodPost,
			path:   "/events/" + eventID + "/reservations",
			body:   `{"n_tickets": 0}`,
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "tickets for unknown event",
			method: http.MethodPost,
			path:   "/events/" + uuid.NewString() + "/tickets",
			body:   `{"price": "1.00", "n_tickets": 1}`,
			status: http.StatusNotFound,
			kind:   "not_found",
		},
		{
			name:   "purchase without reservation",
			method: http.MethodPost,
			path:   "/tickets/purchase",
			body:   `{"attendee_id": "att1", "ticket_ids": ` + jsonList(created) + `}`,
			status: http.StatusConflict,
			kind:   "conflict",
		},
		{
			name:   "purchase unknown ticket",
			method: http.MethodPost,
			path:   "/tickets/purchase",
			body:   `{"attendee_id": "att1", "ticket_ids": ["` + uuid.NewString() + `"]}`,
			status: http.StatusNotFound,
			kind:   "not_found",
		},
		{
			name:   "purchase with malformed id",
			method: http.MethodPost,
			path:   "/tickets/purchase",
			body:   `{"attendee_id": "att1", "ticket_ids": ["abc"]}`,
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "redeem unknown ticket",
			method: http.MethodPost,
			path:   "/tickets/" + uuid.NewString() + "/redeem",
			status: http.StatusNotFound,
			kind:   "not_found",
		},
		{
			name:   "malformed body",
			method: http.MethodPost,
			path:   "/tickets/release",
			body:   `{"ticket_ids": `,
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "both retention forms",
			method: http.MethodPost,
			path:   "/tickets/expired",
			body:   `{"retention_window": "24h", "days_ago": 1}`,
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "negative retention",
			method: http.MethodPost,
			path:   "/tickets/expired",
			body:   `{"days_ago": -1}`,
			status: http.StatusBadRequest,
			kind:   "validation",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := s.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, code, body)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tc.kind, body["kind"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestServer_DeleteExpiredTicketsHandler(t *testing.T) {
	s := newTestServer(t)
	_, past := s.createEvent(t, time.Now().Add(-10*24*time.Hour), 3)
	_, future := s.createEvent(t, time.Now().Add(24*time.Hour), 2)

	code, body := s.do(t, http.MethodPost, "/tickets/expired", `{"days_ago": 5}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(3), body["deleted_count"])

	code, body = s.do(t, http.MethodPost, "/tickets/expired", `{"retention_window": "120h"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(0), body["deleted_count"])

	for _, id := range past {
		_, ok := s.store.Ticket(uuid.MustParse(id))
		assert.False(t, ok)
	}
	for _, id := range future {
		_, ok := s.store.Ticket(uuid.MustParse(id))
		assert.True(t, ok)
	}

	t.Run("days_ago too large for a duration", func(t *testing.T) {
		_, recent := s.createEvent(t, time.Now().Add(-time.Hour), 2)

		code, body := s.do(t, http.MethodPost, "/tickets/expired", `{"days_ago": 281474976710656}`)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, "validation", body["kind"])

		code, body = s.do(t, http.MethodPost, "/tickets/expired", `{"days_ago": 106751}`)
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, float64(0), body["deleted_count"])

		for _, id := range recent {
			_, ok := s.store.Ticket(uuid.MustParse(id))
			assert.True(t, ok, "ticket of a recently ended event must survive")
		}
	})
}

func TestServer_health(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func toStrings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.(string))
	}
	return out
}

func jsonList(ids []string) string {
	b, _ := json.Marshal(ids)
	return string(b)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestServer_requestedAttributes(t *testing.T) {
	s := newTestServer(t)
	eventID, _ := s.createEvent(t, time.Now().Add(24*time.Hour), 2)

	_, body := s.do(t, http.MethodPost, "/events/"+eventID+"/reservations", `{"n_tickets": 2}`)
	reserved := toStrings(body["ticket_ids"])
	code, body := s.do(t, http.MethodPost, "/tickets/purchase", `{"attendee_id": "att1", "ticket_ids": `+jsonList(reserved)+`}`)
	require.Equal(t, http.StatusOK, code, body)

	t.Run("ticket info", func(t *testing.T) {
		code, body := s.do(t, http.MethodPost, "/tickets/info",
			`{"ticket_ids": `+jsonList(reserved)+`, "requested_attributes": {"price": true, "status": false}}`)
		require.Equal(t, http.StatusOK, code, body)

		tickets := body["tickets"].([]any)
		require.Len(t, tickets, 2)
		for _, ticket := range tickets {
			fields := ticket.(map[string]any)
			assert.Len(t, fields, 2)
			assert.Contains(t, reserved, fields["ticket_id"])
			assert.Equal(t, "10", fields["price"])
		}
	})

	t.Run("grouped by attendee", func(t *testing.T) {
		code, body := s.do(t, http.MethodPost, "/attendees/tickets",
			`{"attendee_ids": ["att1", "att2"], "requested_attributes": {"status": true}}`)
		require.Equal(t, http.StatusOK, code, body)

		grouped := body["tickets"].(map[string]any)
		assert.Len(t, grouped["att2"], 0)
		tickets := grouped["att1"].([]any)
		require.Len(t, tickets, 2)
		for _, ticket := range tickets {
			assert.Equal(t, map[string]any{
				"ticket_id":   ticket.(map[string]any)["ticket_id"],
				"attendee_id": "att1",
				"status":      "purchased",
			}, ticket)
		}
	})

	t.Run("unknown attribute", func(t *testing.T) {
		code, body := s.do(t, http.MethodPost, "/tickets/info",
			`{"ticket_ids": `+jsonList(reserved)+`, "requested_attributes": {"secret": true}}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "validation", body["kind"])
	})
}
