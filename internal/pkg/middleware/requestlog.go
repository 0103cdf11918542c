package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"userhub/internal/pkg/logger"
)

// RequestIDHeader é o cabeçalho usado para propagar o id da requisição.
const RequestIDHeader = "X-Request-ID"

// ContextKey é o tipo das chaves que este pacote coloca no contexto.
type ContextKey int

const (
	RequestIDKey ContextKey = iota
)

// GetRequestID extrai o id da requisição do contexto.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(RequestIDKey).(string)
	return id, ok
}

// RequestLogger atribui um id (reaproveita X-Request-ID se vier válido) e registra
// cada requisição concluída no logger da aplicação.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			fields := map[string]interface{}{
				"request_id":  requestID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if status >= http.StatusInternalServerError {
				log.Warn("Requisição concluída com erro de servidor", fields)
				return
			}
			log.Info("Requisição concluída", fields)
		})
	}
}
