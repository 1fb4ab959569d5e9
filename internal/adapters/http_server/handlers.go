package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"stayfinder/internal/app"
	"stayfinder/internal/domain"
)

type Handlers struct {
	Search  *app.SearchService
	Ingest  *app.IngestionService
	Webhook *app.WebhookService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/availability", h.getAvailability)
	s.mux.Post("/v1/availability/ingest", h.ingestAvailability)
	s.mux.Post("/v1/agent-webhook", h.agentWebhook)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func (h *Handlers) getAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	propertyID := q.Get("property_id")
	if propertyID == "" || len(propertyID) > 255 {
		writeProblem(w, http.StatusBadRequest, "Invalid property_id", "property_id is required (max 255 chars)")
		return
	}
	checkIn, err := time.ParseInLocation("2006-01-02", q.Get("check_in"), time.UTC)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid check_in", "check_in must be a YYYY-MM-DD date")
		return
	}
	checkOut, err := time.ParseInLocation("2006-01-02", q.Get("check_out"), time.UTC)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid check_out", "check_out must be a YYYY-MM-DD date")
		return
	}
	guests, err := strconv.Atoi(q.Get("guests"))
	if err != nil || guests < 1 {
		writeProblem(w, http.StatusBadRequest, "Invalid guests", "guests must be an integer of at least 1")
		return
	}

	res, err := h.Search.Resolve(r.Context(), domain.SearchCriteria{
		PropertyID: propertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     guests,
	})
	if err != nil {
		h.writeResolveError(w, r, err, propertyID)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeResolveError maps the domain taxonomy onto HTTP: client-input errors
// and not-found stay distinguishable from "we broke".
func (h *Handlers) writeResolveError(w http.ResponseWriter, r *http.Request, err error, propertyID string) {
	switch {
	case errors.Is(err, domain.ErrPropertyNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "property '"+propertyID+"' not found")
	case errors.Is(err, domain.ErrInvalidDateRange):
		writeProblem(w, http.StatusBadRequest, "Invalid date range", err.Error())
	case errors.Is(err, domain.ErrConfiguration):
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable",
			"service temporarily unavailable due to a configuration issue")
	default:
		log.Error().Err(err).Str("property_id", propertyID).Msg("availability resolution failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error",
			"failed to retrieve availability")
	}
}

func (h *Handlers) ingestAvailability(w http.ResponseWriter, r *http.Request) {
	var payload app.AvailabilityPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", "request body is not valid JSON")
		return
	}
	feed, err := app.MapFeed(payload)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}
	if err := h.Ingest.Ingest(r.Context(), feed); err != nil {
		log.Error().Err(err).Str("property_id", feed.PropertyID).Msg("availability ingestion failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error",
			"failed to store availability")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Availability data ingested successfully."})
}

// agentWebhook always answers 200 with fulfillment text; the agent cannot do
// anything useful with an HTTP error.
func (h *Handlers) agentWebhook(w http.ResponseWriter, r *http.Request) {
	var req app.WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, app.WebhookResponse{
			FulfillmentText: "I couldn't read that request. Please try again.",
		})
		return
	}
	writeJSON(w, http.StatusOK, h.Webhook.Handle(r.Context(), req))
}
