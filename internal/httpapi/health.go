package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"
)

// health reports liveness plus a shallow reachability check of each
// adapter (DB ping, object store HEAD, bus broker metadata fetch), giving
// the endpoint real substance beyond a bare 200. The LLM provider is not
// contacted; only its configured name is reported.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbOK := h.d.DB.PingContext(ctx) == nil

	_, storeErr := h.d.Store.Exists(ctx, "healthcheck")
	storeOK := storeErr == nil

	busOK := checkBus(ctx, h.d.Cfg.Bus.Brokers)

	status := http.StatusOK
	healthy := dbOK && storeOK && busOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, envelope{
		"status":             statusLabel(healthy),
		"version":            "1.0.0",
		"api_version":        "v1",
		"database_available": dbOK,
		"object_store_available": storeOK,
		"bus_available":      busOK,
		"llm_provider":       h.d.Cfg.LLM.Provider,
	})
}

func statusLabel(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "degraded"
}

func checkBus(ctx context.Context, brokers []string) bool {
	if len(brokers) == 0 {
		return false
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return false
	}
	defer conn.Close()

	_, err = conn.Brokers()
	return err == nil
}
