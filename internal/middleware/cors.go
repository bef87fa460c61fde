package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS returns CORS middleware built from a comma-separated list of
// allowed origins, typically the FRONTEND_URL config value. Empty input
// falls back to the local development frontend.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	origins := allowedOrigins(frontendURL)

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		MaxAge:           86400,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})

	return c.Handler
}

func allowedOrigins(frontendURL string) []string {
	var origins []string
	for _, o := range strings.Split(frontendURL, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, strings.TrimRight(o, "/"))
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}
