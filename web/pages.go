// ABOUTME: HTML page handlers for the field agent screens
// ABOUTME: Covers dashboard, leads, visits, attendance, and conveyance forms
package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/logging"
	"github.com/harperreed/fieldforce/models"
)

const recentTravels = 10

func page(title, nav string) map[string]any {
	return map[string]any{"Title": title, "Nav": nav}
}

// renderFailure shows the not-found page for missing records and an error page otherwise.
func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if fieldops.IsNotFound(err) {
		s.handleNotFound(w, r)
		return
	}
	logging.Error(fallback, "path", r.URL.Path, "err", err)
	data := page("Something went wrong", "")
	s.renderPage(w, http.StatusBadGateway, "error", withToast(data, fieldops.ErrorNotice(err, fallback), ""))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Dashboard(r.Context())
	if err != nil {
		s.renderFailure(w, r, err, "Failed to load dashboard")
		return
	}
	active, err := s.svc.ActiveTravel()
	if err != nil {
		s.renderFailure(w, r, err, "Failed to load dashboard")
		return
	}

	data := page("Dashboard", "home")
	data["Stats"] = stats
	data["ActiveTravel"] = active
	s.renderPage(w, http.StatusOK, "dashboard", data)
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	leads, err := s.svc.Leads(r.Context(), term)
	if err != nil {
		s.renderFailure(w, r, err, "Failed to load leads")
		return
	}

	data := page("Leads", "leads")
	data["Leads"] = leads
	data["Query"] = term
	if isHTMX(r) {
		s.renderPartial(w, http.StatusOK, "lead-list", data)
		return
	}
	s.renderPage(w, http.StatusOK, "leads", data)
}

func (s *Server) leadPage(r *http.Request) (map[string]any, error) {
	lead, err := s.svc.Lead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	data := page(lead.Name, "leads")
	data["Lead"] = lead
	data["Fabricators"] = s.svc.Fabricators()
	data["Selected"] = lead.FabricatorName
	return data, nil
}

func (s *Server) handleLeadDetail(w http.ResponseWriter, r *http.Request) {
	data, err := s.leadPage(r)
	if err != nil {
		s.renderFailure(w, r, err, "Failed to load lead")
		return
	}
	s.renderPage(w, http.StatusOK, "lead_detail", data)
}

func (s *Server) handleAssignFabricator(w http.ResponseWriter, r *http.Request) {
	data, err := s.leadPage(r)
	if err != nil {
		s.renderFailure(w, r, err, "Failed to load lead")
		return
	}

	fabricator := strings.TrimSpace(r.FormValue("fabricator"))
	data["Selected"] = fabricator
	lead := data["Lead"].(*models.Lead)

	if err := s.svc.AssignFabricator(r.Context(), lead.ID, fabricator); err != nil {
		s.renderPage(w, statusFor(err), "lead_detail", withToast(data, fieldops.ErrorNotice(err, "Failed to assign fabricator."), ""))
		return
	}
	lead.FabricatorName = fabricator
	s.renderPage(w, http.StatusOK, "lead_detail", withToast(data, fieldops.NoticeFabricatorAssigned, "/leads"))
}

func (s *Server) handleVisits(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", models.VisitPending, models.VisitCheckedIn, models.VisitCompleted:
	default:
		status = ""
	}

	visits, err := s.svc.Visits(status)
	if err != nil {
		s.renderFailure(w, r, err, "Failed to load visits")
		return
	}

	data := page("Visits", "visits")
	data["Visits"] = visits
	data["Status"] = status
	s.renderPage(w, http.StatusOK, "visits", data)
}

// visitForm is the state of the completion form between requests.
type visitForm struct {
	VisitID  uuid.UUID
	Reason   string
	Notes    string
	Products []models.ProductQuantity
}

func (f visitForm) ShowProducts() bool {
	return f.Reason == models.ReasonQuote
}

// parseVisitForm reads reason, notes, and the product sheet. Products arrive
// as parallel "product" and "quantity" values.
func (s *Server) parseVisitForm(r *http.Request, visitID uuid.UUID) visitForm {
	form := visitForm{
		VisitID: visitID,
		Reason:  strings.TrimSpace(r.FormValue("reason")),
		Notes:   r.FormValue("notes"),
	}

	names := r.Form["product"]
	if len(names) == 0 {
		form.Products = s.svc.ProductSheet()
		return form
	}
	quantities := r.Form["quantity"]
	form.Products = make([]models.ProductQuantity, len(names))
	for i, name := range names {
		form.Products[i].Name = name
		if i < len(quantities) {
			if q, err := strconv.Atoi(strings.TrimSpace(quantities[i])); err == nil && q > 0 {
				form.Products[i].Quantity = q
			}
		}
	}
	return form
}

func parseID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (s *Server) visitPage(visit *models.Visit, form visitForm) map[string]any {
	data := page(visit.ClientName, "visits")
	data["Visit"] = visit
	data["Form"] = form
	data["Reasons"] = models.VisitReasons
	return data
}

func (s *Server) handleVisitDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	visit, err := s.svc.Visit(id)
	if err != nil {
		s.renderFailure(w, r, err, "Failed to load visit")
		return
	}

	form := visitForm{
		VisitID:  id,
		Reason:   r.URL.Query().Get("reason"),
		Notes:    visit.Notes,
		Products: s.svc.ProductSheet(),
	}
	if form.Reason == "" {
		form.Reason = visit.Reason
	}
	s.renderPage(w, http.StatusOK, "visit_detail", s.visitPage(visit, form))
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}

	visit, err := s.svc.CheckIn(r.Context(), id)
	if err != nil {
		current, getErr := s.svc.Visit(id)
		if getErr != nil {
			s.renderFailure(w, r, getErr, "Failed to load visit")
			return
		}
		data := s.visitPage(current, visitForm{VisitID: id, Products: s.svc.ProductSheet()})
		s.renderPage(w, statusFor(err), "visit_detail", withToast(data, fieldops.ErrorNotice(err, "Check-in Failed"), ""))
		return
	}

	data := s.visitPage(visit, visitForm{VisitID: id, Products: s.svc.ProductSheet()})
	s.renderPage(w, http.StatusOK, "visit_detail", withToast(data, fieldops.NoticeCheckedIn, ""))
}

// handleAdjustProducts re-renders the product sheet for the selected reason,
// applying an optional "index:delta" adjustment.
func (s *Server) handleAdjustProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	form := s.parseVisitForm(r, id)

	if adjust := r.FormValue("adjust"); adjust != "" {
		idx, delta, found := strings.Cut(adjust, ":")
		if found {
			i, errI := strconv.Atoi(idx)
			d, errD := strconv.Atoi(delta)
			if errI == nil && errD == nil {
				form.Products = models.AdjustQuantity(form.Products, i, d)
			}
		}
	}
	s.renderPartial(w, http.StatusOK, "products", form)
}

func (s *Server) handleCompleteVisit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	form := s.parseVisitForm(r, id)

	completion := &models.VisitCompletion{
		Reason:   form.Reason,
		Notes:    form.Notes,
		Products: form.Products,
	}
	visit, err := s.svc.CompleteVisit(r.Context(), id, completion)
	if err != nil {
		current, getErr := s.svc.Visit(id)
		if getErr != nil {
			s.renderFailure(w, r, getErr, "Failed to load visit")
			return
		}
		data := s.visitPage(current, form)
		s.renderPage(w, statusFor(err), "visit_detail", withToast(data, fieldops.ErrorNotice(err, "Failed to complete visit"), ""))
		return
	}

	form.Reason = visit.Reason
	data := s.visitPage(visit, form)
	s.renderPage(w, http.StatusOK, "visit_detail", withToast(data, fieldops.NoticeVisitCompleted, "/"))
}

// attendanceForm binds the attendance inputs from a query string or form body.
func attendanceForm(r *http.Request) (*models.Attendance, error) {
	a := &models.Attendance{
		TransportMode:   r.FormValue("transport_mode"),
		VehicleType:     r.FormValue("vehicle_type"),
		PublicTransport: r.FormValue("public_transport"),
		OdometerReading: r.FormValue("odometer_reading"),
		OdometerPhoto:   strings.TrimSpace(r.FormValue("odometer_photo")),
	}

	lat, err := parseCoordinate("latitude", r.FormValue("latitude"))
	if err != nil {
		return a, err
	}
	lon, err := parseCoordinate("longitude", r.FormValue("longitude"))
	if err != nil {
		return a, err
	}
	if lat != nil && lon != nil {
		a.Latitude, a.Longitude = *lat, *lon
		a.LocationCaptured = true
	}
	return a, nil
}

func (s *Server) attendancePage(a *models.Attendance) map[string]any {
	data := page("Mark Attendance", "attendance")
	data["Form"] = a
	data["TransportModes"] = models.TransportModes
	data["VehicleTypes"] = models.VehicleTypes
	data["PublicTransports"] = models.PublicTransports
	return data
}

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	a, _ := attendanceForm(r)
	a.Normalize()

	data := s.attendancePage(a)
	if isHTMX(r) {
		s.renderPartial(w, http.StatusOK, "attendance-form", data)
		return
	}

	today, err := s.svc.TodayAttendance()
	if err != nil {
		s.renderFailure(w, r, err, "Failed to load attendance")
		return
	}
	data["Today"] = today
	s.renderPage(w, http.StatusOK, "attendance", data)
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	a, err := attendanceForm(r)
	if err == nil {
		err = s.svc.MarkAttendance(r.Context(), a)
	}
	if err != nil {
		a.Normalize()
		data := s.attendancePage(a)
		s.renderPage(w, statusFor(err), "attendance", withToast(data, fieldops.ErrorNotice(err, "Failed to capture attendance"), ""))
		return
	}

	data := s.attendancePage(a)
	data["Today"] = a
	s.renderPage(w, http.StatusOK, "attendance", withToast(data, fieldops.NoticeAttendance, "/"))
}

func parseCoordinate(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &models.ValidationError{
			Field:   field,
			Title:   "Invalid Coordinates",
			Message: fmt.Sprintf("%s must be a number.", field),
		}
	}
	return &v, nil
}

// punchForm binds location, kind, and optional coordinates.
func punchForm(r *http.Request) (models.PunchIn, error) {
	punch := models.PunchIn{
		Location: r.FormValue("location"),
		Kind:     r.FormValue("kind"),
	}
	var err error
	if punch.Latitude, err = parseCoordinate("latitude", r.FormValue("latitude")); err != nil {
		return punch, err
	}
	if punch.Longitude, err = parseCoordinate("longitude", r.FormValue("longitude")); err != nil {
		return punch, err
	}
	return punch, nil
}

func (s *Server) renderConveyance(w http.ResponseWriter, r *http.Request, status int, notice *fieldops.Notice, title string) {
	active, err := s.svc.ActiveTravel()
	if err != nil {
		s.renderFailure(w, r, err, "Failed to load travels")
		return
	}
	travels, err := s.svc.Travels(recentTravels)
	if err != nil {
		s.renderFailure(w, r, err, "Failed to load travels")
		return
	}

	data := page("Conveyance", "conveyance")
	data["Active"] = active
	data["Travels"] = travels
	data["TravelTitle"] = title
	data["PunchKinds"] = []models.Option{
		{Value: models.PunchCheckpoint, Label: "Checkpoint"},
		{Value: models.PunchArrival, Label: "Arrival"},
		{Value: models.PunchDeparture, Label: "Departure"},
	}
	if notice != nil {
		withToast(data, *notice, "")
	}
	s.renderPage(w, status, "conveyance", data)
}

func (s *Server) handleConveyance(w http.ResponseWriter, r *http.Request) {
	s.renderConveyance(w, r, http.StatusOK, nil, "")
}

func (s *Server) handleStartTravel(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.FormValue("title"))
	start, err := punchForm(r)
	if err == nil {
		_, err = s.svc.StartTravel(r.Context(), title, start)
	}
	if err != nil {
		notice := fieldops.ErrorNotice(err, "Failed to start travel")
		s.renderConveyance(w, r, statusFor(err), &notice, title)
		return
	}
	notice := fieldops.NoticeTravelStarted
	s.renderConveyance(w, r, http.StatusOK, &notice, "")
}

func (s *Server) handlePunchIn(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	punch, err := punchForm(r)
	if err == nil {
		_, err = s.svc.PunchIn(r.Context(), id, punch)
	}
	if err != nil {
		notice := fieldops.ErrorNotice(err, "Failed to punch location")
		s.renderConveyance(w, r, statusFor(err), &notice, "")
		return
	}
	notice := fieldops.NoticeLocationPunched
	s.renderConveyance(w, r, http.StatusOK, &notice, "")
}

func (s *Server) handleStopTravel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	final, err := punchForm(r)
	if err == nil {
		_, err = s.svc.StopTravel(r.Context(), id, final)
	}
	if err != nil {
		notice := fieldops.ErrorNotice(err, "Failed to stop travel")
		s.renderConveyance(w, r, statusFor(err), &notice, "")
		return
	}
	notice := fieldops.NoticeTravelCompleted
	s.renderConveyance(w, r, http.StatusOK, &notice, "")
}
