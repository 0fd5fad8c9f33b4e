package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/splax/teamboard/internal/ws"
)

func eventTopic(req *http.Request) string {
	if memberID := strings.TrimSpace(req.URL.Query().Get("member_id")); memberID != "" {
		return memberID
	}
	return ws.AllMembers
}

func (r *Router) handleMembersWS(w http.ResponseWriter, req *http.Request) {
	if r.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event feed unavailable")
		return
	}
	topic := eventTopic(req)
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger, r.feedWriteTimeout)
	r.hub.Register(topic, client)
	go func() {
		client.Listen()
		r.hub.Unregister(topic, client)
		client.Close()
	}()
}

func (r *Router) handleEventStream(w http.ResponseWriter, req *http.Request) {
	if r.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event feed unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	topic := eventTopic(req)
	client := ws.NewSSEClient(w, r.logger, r.feedWriteTimeout)
	r.hub.Register(topic, client)
	defer func() {
		r.hub.Unregister(topic, client)
		client.Close()
	}()

	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-client.Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}
