package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// corsMaxAge é quanto tempo (s) o navegador pode reaproveitar um preflight.
const corsMaxAge = 300

// CORS libera o frontend a consumir a API a partir de outra origem.
// allowed vazio ou contendo "*" libera qualquer origem; os cabeçalhos pedidos no preflight são ecoados.
func CORS(allowed []string) func(http.Handler) http.Handler {
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         corsMaxAge,
	})
}
