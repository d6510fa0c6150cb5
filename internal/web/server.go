package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-booker/internal/auth"
	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/rooms"
	"github.com/example/room-booker/internal/runs"
	"github.com/example/room-booker/internal/scheduler"
)

//go:embed templates/*.html
var fs embed.FS

// HistoryLister is satisfied by *runs.Repo.
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]runs.Run, error)
}

type Server struct {
	Auth    *auth.Store
	Booker  *scheduler.Booker
	Catalog *rooms.Catalog
	Log     *Log
	// History is nil when no database is configured.
	History HistoryLister
	// Defaults prefill the form, usually from the saved profile.
	Defaults booking.Request
	// RawFields, when set, replaces the fixed reserve fields.
	RawFields string

	// BaseCtx bounds armed cycles. Defaults to context.Background().
	BaseCtx context.Context
	Now     func() time.Time
}

type formValues struct {
	Username      string
	Room          int
	Duration      int
	StartTime     string
	PreferredName string
	At            string
}

type tmplData struct {
	Title string

	Flash     string
	State     string
	Active    bool
	Snapshot  scheduler.Snapshot
	Form      formValues
	Rooms     []rooms.Room
	Durations []durationChoice
	Log       []LogEntry
	History   []runs.Run
}

type durationChoice struct {
	Label   string
	Minutes int
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/", s.Auth.RequireAuth(http.HandlerFunc(s.handlePanel)))
	mux.Handle("/arm", s.Auth.RequireAuth(http.HandlerFunc(s.handleArm)))
	mux.Handle("/cancel", s.Auth.RequireAuth(http.HandlerFunc(s.handleCancel)))
	mux.Handle("/log", s.Auth.RequireAuth(http.HandlerFunc(s.handleLog)))

	return mux
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/login.html", tmplData{Title: "Login"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.Auth.Login(r.FormValue("password")); err != nil {
			s.renderCode(w, http.StatusUnauthorized, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid password"})
			return
		}
		if err := s.Auth.SetSession(w, r); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderPanel(w, r, http.StatusOK, "", s.defaultForm())
}

func (s *Server) defaultForm() formValues {
	f := formValues{
		Username:      s.Defaults.Username,
		PreferredName: s.Defaults.PreferredName,
		StartTime:     s.Defaults.StartTime,
		Room:          s.Defaults.RoomID,
		Duration:      s.Defaults.DurationMin,
	}
	if snap := s.Booker.Snapshot(); snap.Request != nil {
		f.Username = snap.Request.Username
		f.Room = snap.Request.RoomID
		f.Duration = snap.Request.DurationMin
		f.StartTime = snap.Request.StartTime
		f.PreferredName = snap.Request.PreferredName
	}
	if f.Room == 0 {
		if rm, err := s.Catalog.Lookup(rooms.DefaultRoom); err == nil {
			f.Room = rm.ID
		}
	}
	if f.Duration == 0 {
		f.Duration, _ = rooms.ParseDuration(rooms.DefaultDuration)
	}
	return f
}

func (s *Server) renderPanel(w http.ResponseWriter, r *http.Request, code int, flash string, f formValues) {
	snap := s.Booker.Snapshot()
	data := tmplData{
		Title:    "Room booker",
		Flash:    flash,
		State:    snap.State.String(),
		Active:   snap.State.Active(),
		Snapshot: snap,
		Form:     f,
		Rooms:    s.Catalog.All(),
		Log:      s.Log.Entries(),
	}
	for _, label := range rooms.Durations() {
		m, _ := rooms.ParseDuration(label)
		data.Durations = append(data.Durations, durationChoice{Label: label, Minutes: m})
	}
	if s.History != nil {
		hist, err := s.History.List(r.Context(), 10)
		if err != nil {
			log.Printf("web: list history: %v", err)
		}
		data.History = hist
	}
	s.renderCode(w, code, "templates/panel.html", data)
}

func (s *Server) handleArm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f := formValues{
		Username:      strings.TrimSpace(r.FormValue("username")),
		StartTime:     strings.TrimSpace(r.FormValue("start_time")),
		PreferredName: strings.TrimSpace(r.FormValue("preferred_name")),
		At:            strings.TrimSpace(r.FormValue("at")),
	}
	req, target, err := s.parseArm(r, &f)
	if err == nil {
		err = s.Booker.Configure(req)
	}
	if err == nil {
		ctx := s.BaseCtx
		if ctx == nil {
			ctx = context.Background()
		}
		err = s.Booker.ArmAt(ctx, target)
	}
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, scheduler.ErrBusy) {
			code = http.StatusConflict
		}
		s.renderPanel(w, r, code, err.Error(), f)
		return
	}
	log.Printf("web: armed %s at %s", req, target.Format(time.RFC3339))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) parseArm(r *http.Request, f *formValues) (booking.Request, time.Time, error) {
	room, err := s.Catalog.Lookup(r.FormValue("room"))
	if err != nil {
		return booking.Request{}, time.Time{}, err
	}
	f.Room = room.ID

	minutes, err := rooms.ParseDuration(r.FormValue("duration"))
	if err != nil {
		return booking.Request{}, time.Time{}, err
	}
	f.Duration = minutes

	password := r.FormValue("password")
	if password == "" && f.Username == s.Defaults.Username {
		password = s.Defaults.Password
	}

	target, err := scheduler.ParseTarget(f.At, s.now())
	if err != nil {
		return booking.Request{}, time.Time{}, err
	}

	req := booking.Request{
		Username:      f.Username,
		Password:      password,
		RoomID:        room.ID,
		DurationMin:   minutes,
		StartTime:     f.StartTime,
		PreferredName: f.PreferredName,
		RawFields:     s.RawFields,
	}
	if err := req.Validate(); err != nil {
		return booking.Request{}, time.Time{}, err
	}
	return req, target, nil
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.Booker.Cancel()
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLog serves the status lines as plain text for scripts and polling.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "state: %s\n", s.Booker.State())
	for _, e := range s.Log.Entries() {
		fmt.Fprintf(w, "%s %s\n", e.At.Format("15:04:05"), e.Text)
	}
}

var funcs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("15:04:05") },
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04:05")
	},
	"deref": func(s *string) string {
		if s == nil {
			return "-"
		}
		return *s
	},
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	s.renderCode(w, http.StatusOK, name, data)
}

func (s *Server) renderCode(w http.ResponseWriter, code int, name string, data tmplData) {
	t, err := template.New("").Funcs(funcs).ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("web: listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
