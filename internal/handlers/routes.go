package handlers

import "net/http"

// Routes registers every page, API and asset route
func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", a.WithSessionLock(a.Index))

	// API - page state (JSON) and live updates (SSE)
	mux.HandleFunc("GET /api/story", a.StoryDocument)
	mux.HandleFunc("GET /api/story/points/{id}", a.StoryPoint)
	mux.HandleFunc("GET /api/frame", a.WithSessionLock(a.Frame))
	mux.HandleFunc("POST /api/events", a.WithSessionLock(a.Event))
	mux.HandleFunc("GET /api/stream", a.WithSession(a.Stream))

	// Assets
	mux.Handle("GET /static/", http.StripPrefix("/static", a.Static()))

	return mux
}
