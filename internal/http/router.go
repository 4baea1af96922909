package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Index        http.HandlerFunc
	Status       http.HandlerFunc
	Battery      http.HandlerFunc
	ForceRefresh http.HandlerFunc
	TripsSync    http.HandlerFunc
	Charge       http.HandlerFunc
	Login        http.HandlerFunc
	Stream       http.HandlerFunc
	Health       http.HandlerFunc

	// Auth wraps the mutating endpoints.
	Auth func(http.Handler) http.Handler
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	protect := routes.Auth
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}

	if routes.Index != nil {
		mux.Handle("/", method(http.MethodGet, routes.Index))
	}
	if routes.Status != nil {
		mux.Handle("/status", method(http.MethodGet, routes.Status))
	}
	if routes.Battery != nil {
		mux.Handle("/battery", method(http.MethodGet, routes.Battery))
	}
	if routes.ForceRefresh != nil {
		mux.Handle("/force_refresh", protect(method(http.MethodPost, routes.ForceRefresh)))
	}
	if routes.TripsSync != nil {
		mux.Handle("/trips/sync", protect(method(http.MethodPost, routes.TripsSync)))
	}
	if routes.Charge != nil {
		mux.Handle("/charge", protect(method(http.MethodPost, routes.Charge)))
	}
	if routes.Login != nil {
		mux.Handle("/auth/login", method(http.MethodPost, routes.Login))
	}
	if routes.Stream != nil {
		mux.Handle("/ws", routes.Stream)
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
