// ABOUTME: Tests for the web UI routes and JSON API
// ABOUTME: Drives the chi router with httptest against seeded in-memory data
package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldforce/config"
	"github.com/harperreed/fieldforce/crm"
	"github.com/harperreed/fieldforce/db"
	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/models"
)

var testNow = time.Date(2025, 1, 15, 11, 0, 0, 0, time.UTC)

type testEnv struct {
	server *Server
	svc    *fieldops.Service
	source *crm.MockSource
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, crm.NewMockSource())
}

func newTestEnvWith(t *testing.T, source *crm.MockSource) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.Seed(database, testNow))

	svc := fieldops.NewService(database, source, config.Default())
	svc.SetClock(func() time.Time { return testNow })

	server, err := NewServer(svc)
	require.NoError(t, err)
	return &testEnv{server: server, svc: svc, source: source}
}

func (e *testEnv) get(t *testing.T, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postJSON(t *testing.T, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func pendingVisit(t *testing.T, svc *fieldops.Service) *models.Visit {
	t.Helper()
	visits, err := svc.Visits(models.VisitPending)
	require.NoError(t, err)
	require.NotEmpty(t, visits)
	return &visits[0]
}

func TestDashboardPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Sai Kiran")
	assert.Contains(t, body, "Field Sales Executive")
	assert.Contains(t, body, "60%")
	assert.Contains(t, body, "Travel in progress")
}

func TestLeadsSearch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/leads?q=ramesh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ramesh Construction - Villa Doors")
	assert.NotContains(t, rec.Body.String(), "Lakshmi Builders - Apartment Block")
	assert.Contains(t, rec.Body.String(), "<html")

	rec = env.get(t, "/leads?q=LAKSHMI", "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="lead-list"`)
	assert.Contains(t, rec.Body.String(), "Lakshmi Builders - Apartment Block")
	assert.NotContains(t, rec.Body.String(), "<html")

	rec = env.get(t, "/leads?q=nobody")
	assert.Contains(t, rec.Body.String(), "No leads match")
}

func TestLeadDetail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/lead-detail/006dM00000A1b2cQAB")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ramesh Kumar")
	assert.Contains(t, body, "Premium uPVC Door")
	assert.Contains(t, body, "Rajesh Kumar", "fabricator options are listed")

	rec = env.get(t, "/lead-detail/006dM00000ZZZZZQAB")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeadFallbackLabels(t *testing.T) {
	env := newTestEnvWith(t, crm.NewMockSourceWith([]models.Lead{
		{ID: "006dM00000B0000QAB", Name: "Bare Lead", StageName: "Prospecting", OwnerName: "Sai Kiran"},
		{
			ID: "006dM00000B0001QAB", Name: "Partial Lead", StageName: "Qualification", OwnerName: "Sai Kiran",
			LeadSource: "Web",
			Address:    models.Address{City: "Hyderabad", PostalCode: "500034", Country: "India"},
			Contacts:   []models.Contact{{Name: "Anil", Phone: "9000000001"}},
		},
	}))

	rec := env.get(t, "/leads")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, label := range []string{"No Address", "No Lead Source", "No Type", "No Phone", "No Email"} {
		assert.Contains(t, body, label)
	}
	assert.Contains(t, body, "9000000001 · No Email")
	assert.Contains(t, body, "Hyderabad, 500034, India")

	rec = env.get(t, "/lead-detail/006dM00000B0000QAB")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	for _, label := range []string{"Address: N/A", "Lead Source: N/A", "Type: N/A", "Phone: N/A", "Email: N/A"} {
		assert.Contains(t, body, label)
	}

	rec = env.get(t, "/lead-detail/006dM00000B0001QAB")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Address: Hyderabad, India")
	assert.NotContains(t, body, "500034")
	assert.Contains(t, body, "Lead Source: Web")
	assert.Contains(t, body, `href="tel:9000000001"`)
	assert.Contains(t, body, "Email: N/A")
}

func TestAssignFabricatorPage(t *testing.T) {
	env := newTestEnv(t)
	target := "/lead-detail/006dM00000A1b2dQAB/assign"

	rec := env.postForm(t, target, url.Values{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fabricator Required")
	assert.NotContains(t, rec.Body.String(), "http-equiv=\"refresh\"")

	rec = env.postForm(t, target, url.Values{"fabricator": {"Rajesh Kumar"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fabricator assigned successfully!")
	assert.Contains(t, rec.Body.String(), "2;url=/leads")

	lead, err := env.svc.Lead(t.Context(), "006dM00000A1b2dQAB")
	require.NoError(t, err)
	assert.Equal(t, "Rajesh Kumar", lead.FabricatorName)
}

func TestNotFoundPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Oops! Page not found")
	assert.Contains(t, rec.Body.String(), "Return to Home")

	rec = env.postForm(t, "/leads", url.Values{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.get(t, "/visit/not-a-uuid")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendanceRevealRules(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/attendance")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "navigator.geolocation.getCurrentPosition")
	assert.Contains(t, rec.Body.String(), `id="latitude"`)
	assert.NotContains(t, rec.Body.String(), `name="vehicle_type"`)
	assert.NotContains(t, rec.Body.String(), `name="odometer_reading"`)

	rec = env.get(t, "/attendance?transport_mode=private", "HX-Request", "true")
	assert.Contains(t, rec.Body.String(), `name="vehicle_type"`)
	assert.NotContains(t, rec.Body.String(), `name="odometer_reading"`)
	assert.NotContains(t, rec.Body.String(), `name="public_transport"`)

	rec = env.get(t, "/attendance?transport_mode=private&vehicle_type=bike", "HX-Request", "true")
	assert.Contains(t, rec.Body.String(), `name="odometer_reading"`)

	rec = env.get(t, "/attendance?transport_mode=public&vehicle_type=car", "HX-Request", "true")
	assert.Contains(t, rec.Body.String(), `name="public_transport"`)
	assert.NotContains(t, rec.Body.String(), `name="vehicle_type"`)
	assert.NotContains(t, rec.Body.String(), `name="odometer_reading"`)
}

func TestMarkAttendancePage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm(t, "/attendance", url.Values{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transport Mode Required")

	rec = env.postForm(t, "/attendance", url.Values{"transport_mode": {"private"}, "vehicle_type": {"car"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Odometer Reading Required")
	assert.Contains(t, rec.Body.String(), `name="odometer_reading"`, "form keeps the revealed field")

	rec = env.postForm(t, "/attendance", url.Values{
		"transport_mode":   {"private"},
		"vehicle_type":     {"car"},
		"odometer_reading": {"12045.5"},
		"latitude":         {"17.4065"},
		"longitude":        {"78.4772"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Attendance Captured")
	assert.Contains(t, rec.Body.String(), "2;url=/")

	today, err := env.svc.TodayAttendance()
	require.NoError(t, err)
	require.NotNil(t, today)
	require.NotNil(t, today.OdometerKM)
	assert.InDelta(t, 12045.5, *today.OdometerKM, 0.001)
	assert.True(t, today.LocationCaptured)
}

func TestVisitLifecycle(t *testing.T) {
	env := newTestEnv(t)
	visit := pendingVisit(t, env.svc)
	base := "/visit/" + visit.ID.String()

	rec := env.get(t, base)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Check In")

	rec = env.postForm(t, base+"/complete", url.Values{"reason": {"demo"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Check-in Required")

	rec = env.postForm(t, base+"/check-in", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Check-in Successful")
	assert.NotContains(t, rec.Body.String(), "http-equiv=\"refresh\"")

	rec = env.postForm(t, base+"/check-in", url.Values{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Already Checked In")

	rec = env.postForm(t, base+"/complete", url.Values{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Visit Reason Required")

	rec = env.postForm(t, base+"/complete", url.Values{
		"reason":   {"quote"},
		"notes":    {"Wants two French doors"},
		"product":  {"Premium uPVC Door", "French Door"},
		"quantity": {"0", "2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Visit Completed")
	assert.Contains(t, rec.Body.String(), "2;url=/")

	done, err := env.svc.Visit(visit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitCompleted, done.Status)
	require.Len(t, done.Products, 1)
	assert.Equal(t, models.ProductQuantity{Name: "French Door", Quantity: 2}, done.Products[0])
}

func TestProductSheetPartial(t *testing.T) {
	env := newTestEnv(t)
	visit := pendingVisit(t, env.svc)
	target := "/visit/" + visit.ID.String() + "/products"

	rec := env.postForm(t, target, url.Values{"reason": {"demo"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Products Discussed")

	rec = env.postForm(t, target, url.Values{"reason": {"quote"}})
	assert.Contains(t, rec.Body.String(), "Products Discussed")
	assert.Contains(t, rec.Body.String(), "Premium uPVC Door")

	rec = env.postForm(t, target, url.Values{
		"reason":   {"quote"},
		"product":  {"Premium uPVC Door", "French Door"},
		"quantity": {"0", "3"},
		"adjust":   {"1:1"},
	})
	assert.Contains(t, rec.Body.String(), `name="quantity" value="4"`)

	rec = env.postForm(t, target, url.Values{
		"reason":   {"quote"},
		"product":  {"Premium uPVC Door"},
		"quantity": {"0"},
		"adjust":   {"0:-1"},
	})
	assert.Contains(t, rec.Body.String(), `name="quantity" value="0"`, "never below zero")
}

func TestConveyanceFlow(t *testing.T) {
	env := newTestEnv(t)

	active, err := env.svc.ActiveTravel()
	require.NoError(t, err)
	require.NotNil(t, active, "seed leaves one travel running")

	rec := env.postForm(t, "/conveyance/start", url.Values{"title": {"Second trip"}, "location": {"Office"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Travel In Progress")

	base := "/conveyance/" + active.ID.String()
	rec = env.postForm(t, base+"/punch", url.Values{"location": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Location Required")

	rec = env.postForm(t, base+"/punch", url.Values{"location": {"Madhapur"}, "latitude": {"17.4483"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incomplete Coordinates")

	rec = env.postForm(t, base+"/punch", url.Values{
		"location": {"Madhapur"}, "kind": {"arrival"}, "latitude": {"17.4483"}, "longitude": {"78.3915"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Location Punched")
	assert.Contains(t, rec.Body.String(), "Madhapur")

	rec = env.postForm(t, base+"/stop", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Travel Completed")
	assert.Contains(t, rec.Body.String(), "Start Travel")

	rec = env.postForm(t, base+"/stop", url.Values{})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Travel Not Active")

	rec = env.postForm(t, "/conveyance/start", url.Values{"title": {"Second trip"}, "location": {"Office"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Travel Started")
}

func TestAPILeads(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/leads?q=lakshmi")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var leads []models.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leads))
	require.Len(t, leads, 1)
	assert.Equal(t, "006dM00000A1b2dQAB", leads[0].ID)

	rec = env.get(t, "/api/leads?q=nobody")
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = env.get(t, "/api/leads/006dM00000A1b2cQAB")
	require.Equal(t, http.StatusOK, rec.Code)
	var lead models.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lead))
	assert.Len(t, lead.LineItems, 2)

	rec = env.get(t, "/api/leads/006dM00000ZZZZZQAB")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIAssignFabricator(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/api/leads/006dM00000A1b2fQAB/fabricator", `{"fabricator": "Nobody"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var apiErr apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "Unknown Fabricator", apiErr.Title)

	rec = env.postJSON(t, "/api/leads/006dM00000A1b2fQAB/fabricator", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.postJSON(t, "/api/leads/006dM00000A1b2fQAB/fabricator", `{"fabricator": "Rajesh Kumar"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fabricator assigned successfully!")
}

func TestAPIAttendanceAndDashboard(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/api/attendance", `{"transport_mode": "private"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Vehicle Type Required")

	rec = env.postJSON(t, "/api/attendance", `{"transport_mode": "public", "public_transport": "train", "latitude": 17.44, "longitude": 78.50}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var a models.Attendance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, models.PublicTrain, a.PublicTransport)
	assert.True(t, a.LocationCaptured)

	rec = env.get(t, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 5, stats.TotalVisits)
	assert.Equal(t, 4, stats.OpenLeads)
	assert.True(t, stats.AttendanceToday)

	rec = env.get(t, "/api/travels")
	require.Equal(t, http.StatusOK, rec.Code)
	var travels []models.Travel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &travels))
	assert.Len(t, travels, 2)

	rec = env.get(t, "/api/visits?status=completed")
	var visits []models.Visit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &visits))
	assert.Len(t, visits, 3)

	rec = env.get(t, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "not found"}`, rec.Body.String())

	rec = env.get(t, "/healthz")
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}
