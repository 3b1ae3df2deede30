package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"storymap/internal/dialogue"
	"storymap/internal/overlay"
	"storymap/internal/staticfs"
	"storymap/internal/story"
	"storymap/internal/ui"
	"storymap/internal/view"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const sessionCookieName = "storymap_session"

// Options configures an App
type Options struct {
	Store      *story.Store
	HelpFile   string             // Markdown help text inside the web filesystem
	SessionTTL time.Duration      // idle time before a session is evicted
	EventRate  int                // sustained events per second per session
	Scheduler  dialogue.Scheduler // defaults to the wall clock
	StaticTTL  time.Duration      // static path cache; zero disables
	TextSpeed  *dialogue.Speed    // reveal speed of new sessions; nil keeps the default
}

// App holds the application state and dependencies
type App struct {
	PageTemplates  map[string]*template.Template
	FuncMap        template.FuncMap
	webFS          fs.FS
	store          *story.Store
	static         http.Handler
	helpHTML       template.HTML
	scheduler      dialogue.Scheduler
	sessionTTL     time.Duration
	eventRate      int
	textSpeed      dialogue.Speed
	sessions       sync.Map // map[string]*session
	sessionMutexes sync.Map // map[string]*sync.Mutex
}

// session is one browser's page state plus its event budget
type session struct {
	ui      *ui.Controller
	limiter *rate.Limiter
}

// NewApp creates a new app with templates compiled at startup
func NewApp(webFS fs.FS, opts Options) (*App, error) {
	if opts.Store == nil {
		opts.Store = story.Empty()
	}
	if opts.HelpFile == "" {
		opts.HelpFile = "help.md"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.EventRate <= 0 {
		opts.EventRate = 120
	}
	if opts.Scheduler == nil {
		opts.Scheduler = dialogue.ClockScheduler{}
	}
	textSpeed := dialogue.DefaultSpeed
	if opts.TextSpeed != nil {
		textSpeed = *opts.TextSpeed
	}

	funcMap := template.FuncMap{
		"percent": func(v float64) string { return fmt.Sprintf("%g%%", v) },
	}

	pages := map[string]*template.Template{}
	for _, page := range []string{"map.html"} {
		tmpl, err := compilePageTemplate(webFS, funcMap, page)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", page, err)
		}
		pages[page] = tmpl
	}

	var helpHTML template.HTML
	if src, err := fs.ReadFile(webFS, opts.HelpFile); err != nil {
		slog.Warn("help text unavailable", "file", opts.HelpFile, "error", err)
	} else if helpHTML, err = overlay.RenderHelp(src); err != nil {
		return nil, err
	}

	staticFS, err := fs.Sub(webFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	return &App{
		PageTemplates: pages,
		FuncMap:       funcMap,
		webFS:         webFS,
		store:         opts.Store,
		static:        staticfs.New(staticFS, staticfs.WithCacheTTL(opts.StaticTTL)),
		helpHTML:      helpHTML,
		scheduler:     opts.Scheduler,
		sessionTTL:    opts.SessionTTL,
		eventRate:     opts.EventRate,
		textSpeed:     textSpeed,
	}, nil
}

func (a *App) newSession() *session {
	c := ui.New(a.store, ui.DefaultSize, a.scheduler)
	if a.textSpeed != dialogue.DefaultSpeed {
		c.SetSpeed(a.textSpeed)
	}
	return &session{
		ui:      c,
		limiter: rate.NewLimiter(rate.Limit(a.eventRate), 2*a.eventRate),
	}
}

// getSession retrieves the session for this request, creating one if needed.
// Must be called from a handler wrapped with WithSession or WithSessionLock.
func (a *App) getSession(r *http.Request) *session {
	sid := r.Context().Value(sessionIDKey).(string)
	if val, ok := a.sessions.Load(sid); ok {
		s := val.(*session)
		s.ui.Touch()
		return s
	}
	s := a.newSession()
	if actual, loaded := a.sessions.LoadOrStore(sid, s); loaded {
		s.ui.Close()
		s = actual.(*session)
		s.ui.Touch()
	}
	return s
}

func (a *App) getSessionMutex(sessionID string) *sync.Mutex {
	v, _ := a.sessionMutexes.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (a *App) getSessionID(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}
	return ""
}

type contextKey string

const sessionIDKey contextKey = "sessionID"

// WithSession puts the session ID in the request context, creating a
// session ID and cookie if none exists.
func (a *App) WithSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := a.getSessionID(r)
		if sid == "" {
			sid = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   30 * 24 * 60 * 60,
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		next(w, r.WithContext(ctx))
	}
}

// WithSessionLock is WithSession, and also holds the session mutex for the
// duration of the request so events from one page apply in order.
func (a *App) WithSessionLock(next http.HandlerFunc) http.HandlerFunc {
	return a.WithSession(func(w http.ResponseWriter, r *http.Request) {
		mu := a.getSessionMutex(r.Context().Value(sessionIDKey).(string))
		mu.Lock()
		defer mu.Unlock()
		next(w, r)
	})
}

// compilePageTemplate parses layout + a specific page template + partials into one set
func compilePageTemplate(webFS fs.FS, funcMap template.FuncMap, page string) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(webFS, "templates/layout.html", "templates/"+page)
	if err != nil {
		return nil, err
	}
	partials, _ := fs.Glob(webFS, "templates/partials/*.html")
	if len(partials) > 0 {
		if _, err := tmpl.ParseFS(webFS, "templates/partials/*.html"); err != nil {
			slog.Warn("failed to parse partials", "error", err)
		}
	}
	return tmpl, nil
}

type mapData struct {
	Title    string
	HelpHTML template.HTML
	Frame    view.Frame
}

// Index serves the map page
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	s := a.getSession(r)
	data := mapData{
		Title:    a.store.Title(),
		HelpHTML: a.helpHTML,
		Frame:    s.ui.Frame(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.PageTemplates["map.html"].ExecuteTemplate(w, "layout.html", data); err != nil {
		slog.Error("render failed", "template", "map", "error", err)
	}
}

// Static serves the page assets
func (a *App) Static() http.Handler {
	return a.static
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// StoryDocument handles GET /api/story
func (a *App) StoryDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Document())
}

// StoryPoint handles GET /api/story/points/{id}
func (a *App) StoryPoint(w http.ResponseWriter, r *http.Request) {
	p, ok := a.store.Point(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, eventError{Error: "Story point not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Frame handles GET /api/frame
func (a *App) Frame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.getSession(r).ui.Frame())
}

type eventError struct {
	Error string      `json:"error"`
	Frame *view.Frame `json:"frame,omitempty"`
}

// Event handles POST /api/events
func (a *App) Event(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	s := a.getSession(r)

	if !s.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, eventError{Error: "Too many events"})
		return
	}

	var ev ui.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, eventError{Error: "Invalid request body"})
		return
	}

	frame, err := s.ui.Apply(ev)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, frame)
	case errors.Is(err, ui.ErrClosed):
		writeJSON(w, http.StatusGone, eventError{Error: "Session expired"})
	case errors.Is(err, ui.ErrUnknownMarker),
		errors.Is(err, dialogue.ErrPanelHidden),
		errors.Is(err, dialogue.ErrNoSuchOption):
		writeJSON(w, http.StatusConflict, eventError{Error: err.Error(), Frame: &frame})
	default:
		slog.Debug("rejected event", "type", ev.Type, "error", err)
		writeJSON(w, http.StatusBadRequest, eventError{Error: err.Error()})
	}
}

// Stream handles GET /api/stream, pushing a frame whenever the page changes
func (a *App) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	s := a.getSession(r)
	frames, cancel := s.ui.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			data, err := json.Marshal(f)
			if err != nil {
				slog.Error("encode frame failed", "error", err)
				return
			}
			fmt.Fprintf(w, "event: frame\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// StartEviction starts a background goroutine that evicts idle sessions
func (a *App) StartEviction(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.evictSessions(time.Now())
			}
		}
	}()
}

func (a *App) evictSessions(now time.Time) {
	a.sessions.Range(func(key, value any) bool {
		s := value.(*session)
		if now.Sub(s.ui.LastAccessed()) > a.sessionTTL {
			mu := a.getSessionMutex(key.(string))
			if !mu.TryLock() {
				return true // in use, skip
			}
			s.ui.Close()
			a.sessions.Delete(key)
			a.sessionMutexes.Delete(key)
			mu.Unlock()
			slog.Info("evicted idle session", "session", key)
		}
		return true
	})
}

// Close ends every session, stopping their timers and streams
func (a *App) Close() {
	a.sessions.Range(func(key, value any) bool {
		value.(*session).ui.Close()
		a.sessions.Delete(key)
		return true
	})
}
