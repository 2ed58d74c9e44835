// Package httpapi serves ordering sessions and the order archive over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(handler.logger))
	r.Use(middleware.Recoverer)

	r.Post("/sessions", handler.CreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Post("/messages", handler.SendMessage)
		r.Get("/summary", handler.GetSummary)
		r.Post("/reset", handler.ResetSession)
		r.Delete("/", handler.CloseSession)
	})

	r.Get("/orders", handler.ListOrders)
	r.Get("/orders/{id}", handler.GetOrderByID)
	return r
}

// requestLogger logs one line per request through zap
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
