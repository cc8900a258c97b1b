// Package api exposes the reminder list over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pathakanu/careMemo/internal/app"
	"github.com/pathakanu/careMemo/internal/model"
	"github.com/pathakanu/careMemo/internal/store"
)

// Options configure the router.
type Options struct {
	App    *app.App
	Logger *log.Logger
	// Webhook handles incoming Twilio messages; nil leaves the route unmounted.
	Webhook http.Handler
}

// NewRouter builds the HTTP handler.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h := &handler{app: opts.App, logger: opts.Logger}
	r.Route("/reminders", func(rr chi.Router) {
		rr.Get("/", h.list)
		rr.Post("/", h.create)
		rr.Get("/{id}", h.get)
		rr.Patch("/{id}", h.update)
		rr.Delete("/{id}", h.delete)
		rr.Post("/{id}/simulate", h.simulate)
		rr.Get("/{id}/trigger", h.trigger)
	})

	if opts.Webhook != nil {
		r.Method(http.MethodPost, "/twilio/webhook", opts.Webhook)
	}
	return r
}

type handler struct {
	app    *app.App
	logger *log.Logger
}

type createReminderRequest struct {
	Time string `json:"time"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type updateReminderRequest struct {
	// nil = leave unchanged
	Time *string `json:"time"`
	Text *string `json:"text"`
	Type *string `json:"type"`
}

type reminderResponse struct {
	ID   string     `json:"id"`
	Time string     `json:"time"`
	Text string     `json:"text"`
	Type model.Type `json:"type"`
}

type outcomeResponse struct {
	Reminder       reminderResponse `json:"reminder"`
	Message        string           `json:"message"`
	Scheduled      bool             `json:"scheduled"`
	NotificationID int32            `json:"notification_id"`
	Trigger        *time.Time       `json:"trigger,omitempty"`
	Error          string           `json:"error,omitempty"`
}

type alertResponse struct {
	Header  string `json:"header"`
	Message string `json:"message"`
}

type triggerResponse struct {
	At             time.Time `json:"at"`
	NotificationID int32     `json:"notification_id"`
}

func (h *handler) list(w http.ResponseWriter, _ *http.Request) {
	reminders := h.app.Reminders()
	out := make([]reminderResponse, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, toReminderResponse(r))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	rem, ok := h.app.Reminder(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(rem))
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	out, err := h.app.Add(r.Context(), model.Candidate{Time: req.Time, Text: req.Text, Type: model.Type(req.Type)})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOutcomeResponse(out))
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	patch := model.Patch{Time: req.Time, Text: req.Text}
	if req.Type != nil {
		kind := model.Type(*req.Type)
		if parsed, err := model.ParseType(*req.Type); err == nil {
			kind = parsed
		}
		patch.Type = &kind
	}

	out, _, err := h.app.Edit(r.Context(), chi.URLParam(r, "id"), app.Accept(patch))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(out))
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) simulate(w http.ResponseWriter, r *http.Request) {
	header, message, err := h.app.Simulate(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alertResponse{Header: header, Message: message})
}

func (h *handler) trigger(w http.ResponseWriter, r *http.Request) {
	at, id, err := h.app.Trigger(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, triggerResponse{At: at, NotificationID: id})
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, model.ErrInvalidTime),
		errors.Is(err, model.ErrUnknownType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		if h.logger != nil {
			h.logger.Printf("api: %v", err)
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toReminderResponse(r model.Reminder) reminderResponse {
	return reminderResponse{ID: r.ID, Time: r.Time, Text: r.Text, Type: r.Type}
}

func toOutcomeResponse(out app.Outcome) outcomeResponse {
	resp := outcomeResponse{
		Reminder:       toReminderResponse(out.Reminder),
		Message:        out.Message,
		Scheduled:      out.Scheduled(),
		NotificationID: out.Schedule.NotificationID,
	}
	if !out.Schedule.Trigger.IsZero() {
		at := out.Schedule.Trigger
		resp.Trigger = &at
	}
	if out.Schedule.Err != nil {
		resp.Error = out.Schedule.Err.Error()
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
