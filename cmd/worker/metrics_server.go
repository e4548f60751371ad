package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notify-engine/internal/usecase/dispatch"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ChannelsResponse lists the channel kinds with a registered sender.
type ChannelsResponse struct {
	Channels []string `json:"channels"`
}

// startMetricsServer starts the Prometheus metrics HTTP server.
// It runs in a separate goroutine and supports graceful shutdown via context.
//
// The server exposes:
//   - GET /metrics - Prometheus metrics endpoint
//   - GET /health - simple liveness probe (always 200 OK)
//   - GET /channels - channel kinds with a registered sender
//
// When ctx is canceled the server shuts down gracefully within 5 seconds;
// shutdown errors are logged but never block process termination.
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, registry *dispatch.SenderRegistry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/channels", channelsHandler(registry))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

// healthHandler handles GET /health requests (liveness probe).
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}

// channelsHandler reports which channel kinds have a sender registered,
// for operators verifying a deployment's transport configuration.
func channelsHandler(registry *dispatch.SenderRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kinds := registry.Kinds()
		channels := make([]string, 0, len(kinds))
		for _, k := range kinds {
			channels = append(channels, string(k))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(ChannelsResponse{Channels: channels})
	}
}
