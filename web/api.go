// ABOUTME: JSON API handlers mirroring the HTML screens
// ABOUTME: Returns dashboard stats, leads, visits, and travels and accepts attendance
package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/logging"
	"github.com/harperreed/fieldforce/models"
)

type apiError struct {
	Error string `json:"error"`
	Title string `json:"title,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "err", err)
	}
}

func writeAPIError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	notice := fieldops.ErrorNotice(err, fallback)
	if status == http.StatusBadGateway {
		logging.Error(fallback, "err", err)
	}
	writeJSON(w, status, apiError{Error: notice.Message, Title: notice.Title})
}

func (s *Server) apiNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, apiError{Error: "not found"})
}

func (s *Server) apiDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Dashboard(r.Context())
	if err != nil {
		writeAPIError(w, err, "Failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) apiLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.svc.Leads(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeAPIError(w, err, "Failed to load leads")
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) apiLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.svc.Lead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAPIError(w, err, "Failed to load lead")
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type fabricatorRequest struct {
	Fabricator string `json:"fabricator"`
}

func (s *Server) apiAssignFabricator(w http.ResponseWriter, r *http.Request) {
	var req fabricatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.svc.AssignFabricator(r.Context(), id, strings.TrimSpace(req.Fabricator)); err != nil {
		writeAPIError(w, err, "Failed to assign fabricator.")
		return
	}
	writeJSON(w, http.StatusOK, fieldops.NoticeFabricatorAssigned)
}

func (s *Server) apiVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := s.svc.Visits(r.URL.Query().Get("status"))
	if err != nil {
		writeAPIError(w, err, "Failed to load visits")
		return
	}
	if visits == nil {
		visits = []models.Visit{}
	}
	writeJSON(w, http.StatusOK, visits)
}

type attendanceRequest struct {
	TransportMode   string   `json:"transport_mode"`
	VehicleType     string   `json:"vehicle_type"`
	PublicTransport string   `json:"public_transport"`
	OdometerReading string   `json:"odometer_reading"`
	OdometerPhoto   string   `json:"odometer_photo"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

func (s *Server) apiMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}

	a := &models.Attendance{
		TransportMode:   req.TransportMode,
		VehicleType:     req.VehicleType,
		PublicTransport: req.PublicTransport,
		OdometerReading: req.OdometerReading,
		OdometerPhoto:   req.OdometerPhoto,
	}
	if req.Latitude != nil && req.Longitude != nil {
		a.Latitude, a.Longitude = *req.Latitude, *req.Longitude
		a.LocationCaptured = true
	}

	if err := s.svc.MarkAttendance(r.Context(), a); err != nil {
		writeAPIError(w, err, "Failed to capture attendance")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) apiTravels(w http.ResponseWriter, r *http.Request) {
	travels, err := s.svc.Travels(recentTravels)
	if err != nil {
		writeAPIError(w, err, "Failed to load travels")
		return
	}
	if travels == nil {
		travels = []models.Travel{}
	}
	writeJSON(w, http.StatusOK, travels)
}
