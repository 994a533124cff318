package internalhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rmonteiro-pa/ciap-agenda/internal/app"
	"github.com/rmonteiro-pa/ciap-agenda/internal/smartadd"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

const (
	errEventNotFound       = "event not found"
	errIncorrectEventTime  = "incorrect event time"
	errIncorrectDate       = "incorrect date"
	errInternalServerError = "internal server error"
)

type handlers struct {
	app *app.App
}

// RegisterRoutes binds the JSON API onto the gateway mux.
func RegisterRoutes(mux *runtime.ServeMux, a *app.App) error {
	h := &handlers{app: a}
	routes := []struct {
		method  string
		path    string
		handler runtime.HandlerFunc
	}{
		{"POST", "/events", h.createEvent},
		{"GET", "/events", h.listEvents},
		{"GET", "/events/{id}", h.getEvent},
		{"PUT", "/events/{id}", h.updateEvent},
		{"POST", "/events/{id}/toggle", h.toggleTask},
		{"POST", "/events/{id}/cancel", h.cancelEvent},
		{"POST", "/events/{id}/share", h.shareEvent},
		{"GET", "/stats", h.stats},
		{"POST", "/smartadd", h.smartAdd},
		{"GET", "/operator", h.getOperator},
		{"PUT", "/operator", h.setOperator},
		{"GET", "/notifications", h.pendingNotifications},
		{"GET", "/notifications/next", h.nextNotification},
	}
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.path, r.handler); err != nil {
			return fmt.Errorf("failed to register %s %s: %w", r.method, r.path, err)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// mapError translates domain errors into response status codes.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFoundEvent):
		writeError(w, http.StatusNotFound, errEventNotFound)
	case errors.Is(err, storage.ErrIncorrectEventTime):
		writeError(w, http.StatusBadRequest, errIncorrectEventTime)
	case errors.Is(err, storage.ErrIncorrectEventType),
		errors.Is(err, storage.ErrIncorrectEventStatus),
		errors.Is(err, storage.ErrDuplicateEventID),
		errors.Is(err, storage.ErrNotTask),
		errors.Is(err, storage.ErrIncorrectStartDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, smartadd.ErrEmptyText), errors.Is(err, smartadd.ErrBadResult):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, smartadd.ErrParseInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, smartadd.ErrParseFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Errorf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, errInternalServerError)
	}
}

func (h *handlers) createEvent(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var e storage.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "malformed event")
		return
	}
	id, err := h.app.CreateEvent(r.Context(), e)
	if err != nil {
		mapError(w, err)
		return
	}
	created, err := h.app.GetEvent(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	events, err := h.app.ListEvents(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// getEvent also serves the day/week/month projections: the gateway mux
// matches "/events/{id}" before same-prefix literal patterns, so the
// reserved segments are dispatched here instead of registered separately.
func (h *handlers) getEvent(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	switch pathParams["id"] {
	case "day":
		h.eventsByDate(w, r, h.app.GetEventsForDay)
		return
	case "week":
		h.eventsByDate(w, r, h.app.GetEventsForWeek)
		return
	case "month":
		h.eventsByDate(w, r, h.app.GetEventsForMonth)
		return
	}
	e, err := h.app.GetEvent(r.Context(), pathParams["id"])
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handlers) updateEvent(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	var e storage.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "malformed event")
		return
	}
	if err := h.app.UpdateEvent(r.Context(), pathParams["id"], e); err != nil {
		mapError(w, err)
		return
	}
	updated, err := h.app.GetEvent(r.Context(), pathParams["id"])
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handlers) toggleTask(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	e, err := h.app.ToggleTask(r.Context(), pathParams["id"])
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handlers) cancelEvent(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	e, err := h.app.CancelEvent(r.Context(), pathParams["id"])
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handlers) shareEvent(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	link, err := h.app.ShareEvent(r.Context(), pathParams["id"])
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"link": link})
}

func (h *handlers) eventsByDate(
	w http.ResponseWriter,
	r *http.Request,
	query func(ctx context.Context, date time.Time) ([]storage.Event, error),
) {
	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errIncorrectDate)
		return
	}
	events, err := query(r.Context(), date)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	stats, err := h.app.Stats(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) smartAdd(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}
	e, err := h.app.SmartAdd(r.Context(), req.Text, time.Now())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *handlers) getOperator(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	op, err := h.app.Operator(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (h *handlers) setOperator(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var op storage.Operator
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		writeError(w, http.StatusBadRequest, "malformed operator")
		return
	}
	if err := h.app.SetOperator(r.Context(), op); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (h *handlers) pendingNotifications(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.app.PendingNotifications())
}

func (h *handlers) nextNotification(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	e, ok, err := h.app.NextNotification(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no pending notifications")
		return
	}
	writeJSON(w, http.StatusOK, e)
}
