package httpx

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/splax/teamboard/internal/domain"
	"github.com/splax/teamboard/internal/ws"
	"github.com/splax/teamboard/pkg/config"
)

// TeamService is the member and task workflow the router exposes.
type TeamService interface {
	GetTeamMember(id string) (domain.TeamMember, bool)
	GetTasks(memberID string) ([]domain.Task, bool)
	GetTask(memberID, taskID string) (domain.Task, bool)
	ListTeamMembers() []domain.TeamMember
	CountTeamMembers() int
	AddTeamMember(member domain.TeamMember) domain.TeamMember
	UpdateTeamMember(id string, member domain.TeamMember) (domain.TeamMember, bool)
	DeleteTeamMember(id string) bool
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux              *http.ServeMux
	logger           *slog.Logger
	team             TeamService
	hub              *ws.Hub
	upgrader         websocket.Upgrader
	limiter          RateLimiter
	reads            rateBudget
	writes           rateBudget
	environment      string
	feedWriteTimeout time.Duration
	heartbeat        time.Duration
	metrics          *routerMetrics
}

const (
	healthCheckTimeout      = 2 * time.Second
	defaultFeedWriteTimeout = 5 * time.Second
	defaultHeartbeat        = 15 * time.Second
	maxBodyBytes            = 1 << 20
)

// NewRouter assembles routes with dependencies. hub and limiter may be nil.
func NewRouter(logger *slog.Logger, teamSvc TeamService, hub *ws.Hub, limiter RateLimiter, cfg config.APIConfig) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		mux:    http.NewServeMux(),
		logger: logger,
		team:   teamSvc,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:          limiter,
		environment:      cfg.Environment,
		feedWriteTimeout: cfg.WebsocketSendTimeout,
		heartbeat:        cfg.EventStreamHeartbeat,
	}
	if cfg.RateLimitEnabled {
		r.reads = rateBudget{name: "member_reads", limit: cfg.RateLimitReadPerMin, window: time.Minute}
		r.writes = rateBudget{name: "member_writes", limit: cfg.RateLimitWritePerMin, window: time.Minute}
		if r.limiter == nil {
			r.limiter = NewMemoryRateLimiter()
		}
	}
	// Feed writes always carry a deadline so a stalled reader is eventually dropped.
	if r.feedWriteTimeout <= 0 {
		r.feedWriteTimeout = defaultFeedWriteTimeout
	}
	if r.heartbeat <= 0 {
		r.heartbeat = defaultHeartbeat
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("GET /healthz", r.audit(r.handleHealthz))
	r.mux.Handle("GET /metrics", r.metricsHandler())
	r.mux.HandleFunc("GET /ws/members", r.audit(r.limit(r.reads, r.handleMembersWS)))
	r.mux.HandleFunc("GET /events", r.audit(r.limit(r.reads, r.handleEventStream)))

	r.mux.HandleFunc("GET /members/{memberId}/tasks/{taskId}", r.audit(r.limit(r.reads, r.handleGetTask)))
	r.mux.HandleFunc("GET /{memberId}/tasks/{taskId}", r.audit(r.limit(r.reads, r.handleGetTask)))
	r.mux.HandleFunc("GET /{memberId}/tasks", r.audit(r.limit(r.reads, r.handleGetTasks)))
	r.mux.HandleFunc("GET /{$}", r.audit(r.limit(r.reads, r.handleListMembers)))
	r.mux.HandleFunc("GET /{memberId}", r.audit(r.limit(r.reads, r.handleGetMember)))
	r.mux.HandleFunc("POST /{$}", r.audit(r.limit(r.writes, r.handleCreateMember)))
	r.mux.HandleFunc("PUT /{memberId}", r.audit(r.limit(r.writes, r.handleUpdateMember)))
	r.mux.HandleFunc("DELETE /{memberId}", r.audit(r.limit(r.writes, r.handleDeleteMember)))
}

// reservedMemberIDs are path segments taken by operational GET routes. A member
// stored under one of them could never be read back.
var reservedMemberIDs = map[string]bool{"healthz": true, "metrics": true, "events": true}

type pinger interface {
	Ping(ctx context.Context) error
}

type backendNamer interface {
	Backend() string
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	components := map[string]any{
		"members": map[string]any{"status": "up", "count": r.team.CountTeamMembers()},
	}
	status := "ok"
	if r.limiter != nil {
		limiter := map[string]any{"status": "up"}
		if named, ok := r.limiter.(backendNamer); ok {
			limiter["backend"] = named.Backend()
		}
		if p, ok := r.limiter.(pinger); ok {
			ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				status = "degraded"
				limiter["status"] = "down"
				limiter["error"] = err.Error()
			}
		}
		components["rate_limiter"] = limiter
	}
	if r.hub != nil {
		components["events"] = map[string]any{"status": "up", "subscribers": r.hub.Subscribers()}
	}
	payload := map[string]any{
		"status":      status,
		"environment": r.environment,
		"components":  components,
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}
