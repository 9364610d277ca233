package handlers

import "net/http"

// NewRouter mounts the API under /api/ and the static files on /.
func NewRouter(api *APIHandler, static *StaticHandler) *http.ServeMux {
	mux := http.NewServeMux()
	api.Register(mux)
	mux.Handle("/", static)
	return mux
}
