// ABOUTME: Web UI server with embedded templates and a JSON API
// ABOUTME: Serves the field agent screens with HTMX partials on a chi router
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harperreed/fieldforce/fieldops"
	"github.com/harperreed/fieldforce/logging"
	"github.com/harperreed/fieldforce/models"
)

//go:embed templates/*
var templatesFS embed.FS

// RedirectDelay is how long a success toast stays up before the page navigates on.
const RedirectDelay = 2 * time.Second

type Server struct {
	svc    *fieldops.Service
	base   *template.Template
	pages  map[string]*template.Template
	router chi.Router
}

func NewServer(svc *fieldops.Service) (*Server, error) {
	funcMap := template.FuncMap{
		"reasonLabel": models.ReasonLabel,
		"formatTime": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006 3:04 PM")
		},
		"formatClock": func(t time.Time) string {
			return t.Local().Format("3:04 PM")
		},
		"km": func(f float64) string {
			return fmt.Sprintf("%.1f km", f)
		},
		"money": func(f float64) string {
			return fmt.Sprintf("₹%.2f", f)
		},
		"add": func(a, b int) int {
			return a + b
		},
		"deref": func(f *float64) float64 {
			if f == nil {
				return 0
			}
			return *f
		},
		"seconds": func(d time.Duration) int {
			return int(d / time.Second)
		},
	}

	base, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	pageFiles, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list page templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone templates: %w", err)
		}
		if _, err := clone.ParseFS(templatesFS, file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = clone
	}

	s := &Server{svc: svc, base: base, pages: pages}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	r.Get("/", s.handleDashboard)
	r.Get("/leads", s.handleLeads)
	r.Get("/lead-detail/{id}", s.handleLeadDetail)
	r.Post("/lead-detail/{id}/assign", s.handleAssignFabricator)
	r.Get("/visits", s.handleVisits)
	r.Get("/visit/{id}", s.handleVisitDetail)
	r.Post("/visit/{id}/check-in", s.handleCheckIn)
	r.Post("/visit/{id}/products", s.handleAdjustProducts)
	r.Post("/visit/{id}/complete", s.handleCompleteVisit)
	r.Get("/attendance", s.handleAttendance)
	r.Post("/attendance", s.handleMarkAttendance)
	r.Get("/conveyance", s.handleConveyance)
	r.Post("/conveyance/start", s.handleStartTravel)
	r.Post("/conveyance/{id}/punch", s.handlePunchIn)
	r.Post("/conveyance/{id}/stop", s.handleStopTravel)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.apiDashboard)
		r.Get("/leads", s.apiLeads)
		r.Get("/leads/{id}", s.apiLead)
		r.Post("/leads/{id}/fabricator", s.apiAssignFabricator)
		r.Get("/visits", s.apiVisits)
		r.Post("/attendance", s.apiMarkAttendance)
		r.Get("/travels", s.apiTravels)
		r.NotFound(s.apiNotFound)
		r.MethodNotAllowed(s.apiNotFound)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down web server: %w", err)
		}
		return nil
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type redirect struct {
	URL     string
	Seconds int
}

// renderPage executes the layout with the named page as its content.
func (s *Server) renderPage(w http.ResponseWriter, status int, page string, data map[string]any) {
	tmpl, ok := s.pages[page]
	if !ok {
		logging.Error("unknown page template", "page", page)
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	s.execute(w, tmpl, status, "layout", data)
}

// renderPartial executes one named partial, for HTMX swaps.
func (s *Server) renderPartial(w http.ResponseWriter, status int, name string, data any) {
	s.execute(w, s.base, status, name, data)
}

func (s *Server) execute(w http.ResponseWriter, tmpl *template.Template, status int, name string, data any) {
	var buf strings.Builder
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Error("template error", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// withToast adds a toast, and for successes an optional delayed redirect.
func withToast(data map[string]any, notice fieldops.Notice, redirectTo string) map[string]any {
	data["Toast"] = notice
	if redirectTo != "" {
		data["Redirect"] = redirect{URL: redirectTo, Seconds: int(RedirectDelay / time.Second)}
	}
	return data
}

// statusFor maps an operation error to the page status code.
func statusFor(err error) int {
	switch {
	case fieldops.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fieldops.ErrTravelActive), errors.Is(err, fieldops.ErrTravelNotActive):
		return http.StatusConflict
	case fieldops.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	data := page("Page Not Found", "")
	data["Path"] = r.URL.Path
	s.renderPage(w, http.StatusNotFound, "notfound", data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
