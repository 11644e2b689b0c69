package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/cmlabs-hris/teamflow-analytics/internal/handler/http/response"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/jwt"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/sse"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
)

const (
	rangeParam             = "range"
	snapshotPublishedEvent = "snapshot_published"
	supersededHeader       = "X-Snapshot-Superseded"
)

type AnalyticsHandler interface {
	Dashboard(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
	State(w http.ResponseWriter, r *http.Request)
	Ranges(w http.ResponseWriter, r *http.Request)
	StreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type analyticsHandlerImpl struct {
	analyticsService analytics.AnalyticsService
	jwtService       jwt.Service
	hub              *sse.Hub
	defaultRange     string
	keepalive        time.Duration
}

func NewAnalyticsHandler(analyticsService analytics.AnalyticsService, jwtService jwt.Service, hub *sse.Hub, defaultRange string) AnalyticsHandler {
	return &analyticsHandlerImpl{
		analyticsService: analyticsService,
		jwtService:       jwtService,
		hub:              hub,
		defaultRange:     defaultRange,
		keepalive:        30 * time.Second,
	}
}

// snapshotNotice is the payload of a snapshot_published event. Clients
// re-pull /dashboard to get the metrics.
type snapshotNotice struct {
	ID          string             `json:"id"`
	Sequence    uint64             `json:"sequence"`
	Range       analytics.RangeKey `json:"range"`
	State       analytics.State    `json:"state"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// PublishSnapshots forwards every published snapshot to the stream hub.
func PublishSnapshots(analyticsService analytics.AnalyticsService, hub *sse.Hub) (unsubscribe func()) {
	return analyticsService.Subscribe(func(s *analytics.Snapshot) {
		hub.Broadcast(sse.Event{
			Event: snapshotPublishedEvent,
			Data: snapshotNotice{
				ID:          s.ID,
				Sequence:    s.Sequence,
				Range:       s.Range.Key,
				State:       s.State,
				GeneratedAt: s.GeneratedAt,
			},
		})
	})
}

// getUserIDFromContext extracts user_id from JWT context
func getUserIDFromContext(r *http.Request) string {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if userID, ok := claims["user_id"].(string); ok {
		return userID
	}
	return ""
}

// Dashboard returns the latest snapshot. It refreshes first when nothing has
// been published yet or when the caller asks for a different range.
func (h *analyticsHandlerImpl) Dashboard(w http.ResponseWriter, r *http.Request) {
	raw := rangeQuery(r)
	if err := validator.ValidateRangeParam(rangeParam, raw); err != nil {
		response.HandleError(w, err)
		return
	}

	if snap, ok := h.analyticsService.Latest(); ok {
		if raw == "" {
			response.Success(w, snap)
			return
		}
		if key, _ := analytics.ParseRangeKey(raw); key == snap.Range.Key {
			response.Success(w, snap)
			return
		}
	}

	if raw == "" {
		raw = h.defaultRange
	}
	h.writeRefreshed(w, h.refresh(r, raw))
}

// Refresh always recomputes. The snapshot may already be superseded by a
// refresh that started later.
func (h *analyticsHandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	raw := rangeQuery(r)
	if err := validator.ValidateRangeParam(rangeParam, raw); err != nil {
		response.HandleError(w, err)
		return
	}
	if raw == "" {
		raw = h.defaultRange
	}

	h.writeRefreshed(w, h.refresh(r, raw))
}

// rangeQuery reads the range parameter folded to the form range keys use.
func rangeQuery(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.URL.Query().Get(rangeParam)))
}

// refresh outlives the request: a client that disconnects mid-refresh must not
// abort a computation other dashboards will read.
func (h *analyticsHandlerImpl) refresh(r *http.Request, raw string) *analytics.Snapshot {
	return h.analyticsService.Refresh(context.WithoutCancel(r.Context()), raw)
}

func (h *analyticsHandlerImpl) writeRefreshed(w http.ResponseWriter, snap *analytics.Snapshot) {
	if h.analyticsService.Version() != snap.Sequence {
		w.Header().Set(supersededHeader, "true")
	}
	response.Success(w, snap)
}

func (h *analyticsHandlerImpl) State(w http.ResponseWriter, r *http.Request) {
	res := analytics.StateResponse{
		State:    h.analyticsService.State(),
		Version:  h.analyticsService.Version(),
		Failures: h.analyticsService.FailureReports(),
	}
	if snap, ok := h.analyticsService.Latest(); ok {
		tr := snap.Range
		generatedAt := snap.GeneratedAt
		res.Range = &tr
		res.GeneratedAt = &generatedAt
	}
	response.Success(w, res)
}

func (h *analyticsHandlerImpl) Ranges(w http.ResponseWriter, r *http.Request) {
	def, _ := analytics.ParseRangeKey(h.defaultRange)
	res := make([]analytics.RangeResponse, 0, len(analytics.RangeKeys))
	for _, key := range analytics.RangeKeys {
		res = append(res, analytics.RangeResponse{
			Key:     key,
			Days:    key.Days(),
			Default: key == def,
		})
	}
	response.Success(w, res)
}

// StreamToken issues a short-lived token for the SSE endpoint
func (h *analyticsHandlerImpl) StreamToken(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.HandleError(w, analytics.ErrInvalidToken)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(userID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, analytics.SSETokenResponse{Token: token, ExpiresIn: expiresIn})
}

// Stream pushes snapshot_published events until the client disconnects
func (h *analyticsHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot send headers, so the token comes in the query string
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.HandleError(w, analytics.ErrMissingToken)
		return
	}

	userID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.HandleError(w, analytics.ErrInvalidToken)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(userID)
	defer cleanup()

	connected, _ := json.Marshal(map[string]interface{}{
		"status":  "connected",
		"version": h.analyticsService.Version(),
	})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", connected)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
