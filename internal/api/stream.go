package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/realtime"
)

// keepAliveInterval keeps idle proxies from closing a quiet stream.
const keepAliveInterval = 25 * time.Second

type snapshotEvent[V any] struct {
	Seq   uint64 `json:"seq"`
	Stale bool   `json:"stale"`
	Error string `json:"error,omitempty"`
	Items []V    `json:"items"`
}

// streamSnapshots writes every snapshot of sub as a server-sent event until the client
// disconnects or the subscription ends. The subscription is always cancelled on return.
func streamSnapshots[T, V any](h *Handlers, w http.ResponseWriter, r *http.Request, sub *realtime.Subscription[T], render func([]T) []V) {
	defer sub.Cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, h.logger, fmt.Errorf("response writer does not support streaming"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap, open := <-sub.Updates():
			if !open {
				return
			}
			event := snapshotEvent[V]{Seq: snap.Seq, Stale: snap.Stale, Items: render(snap.Items)}
			name := "snapshot"
			if snap.Stale {
				name = "stale"
				event.Error = publicMessage(snap.Err)
				h.logger.Warn().Err(snap.Err).Str("path", r.URL.Path).Uint64("seq", snap.Seq).Msg("stale snapshot delivered")
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error().Err(err).Msg("snapshot encoding failed")
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", snap.Seq, name, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func publicMessage(err error) string {
	if de, ok := domain.AsError(err); ok {
		return de.Message
	}
	if err != nil {
		return "live updates are temporarily unavailable"
	}
	return ""
}

func (h *Handlers) handleStreamFunding(w http.ResponseWriter, r *http.Request) {
	sub := h.channel.SubscribeFunding(r.Context())
	streamSnapshots(h, w, r, sub, h.present.gifts)
}

func (h *Handlers) handleStreamGifts(w http.ResponseWriter, r *http.Request) {
	sub := h.channel.SubscribeGifts(r.Context())
	streamSnapshots(h, w, r, sub, h.present.catalogGifts)
}

func (h *Handlers) handleStreamContributions(w http.ResponseWriter, r *http.Request) {
	sub := h.channel.SubscribeAllContributions(r.Context())
	streamSnapshots(h, w, r, sub, h.present.contributions)
}
