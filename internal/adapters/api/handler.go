package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// APIHandler exposes the administration operations over HTTP.
type APIHandler struct {
	svc    ports.AdminService
	keys   ports.APIKeyStore
	logger zerolog.Logger
}

// NewAPIHandler creates and returns a new APIHandler instance.
func NewAPIHandler(svc ports.AdminService, keys ports.APIKeyStore, logger *zerolog.Logger) *APIHandler {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &APIHandler{svc: svc, keys: keys, logger: l.With().Str("component", "api").Logger()}
}

// Routes builds the router. /health and /metrics are public.
func (h *APIHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.keys, h.logger))

		r.Route("/namespaces", func(r chi.Router) {
			r.Post("/", h.CreateNamespace)
			r.Get("/", h.ListNamespaces)
			r.Get("/{id}", h.GetNamespace)
			r.Delete("/{id}", h.DeleteNamespace)
		})

		r.Route("/zones", func(r chi.Router) {
			r.Post("/", h.CreateZone)
			r.Get("/", h.ListZones)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetZone)
				r.Put("/", h.UpdateZone)
				r.Delete("/", h.DeleteZone)
				r.Get("/rrs", h.ListRrsByZone)
				r.Post("/rrs", h.CreateRr)
				r.Get("/rule", h.GetZonerule)
				r.Put("/rule", h.SetZonerule)
				r.Delete("/rule", h.DeleteZonerule)
			})
		})

		r.Route("/rrs", func(r chi.Router) {
			r.Get("/", h.ListRrs)
			r.Get("/{id}", h.GetRr)
			r.Put("/{id}", h.UpdateRr)
			r.Delete("/{id}", h.DeleteRr)
		})

		r.Get("/permissions/{kind}/{id}", h.GetPermissions)
		r.Post("/permissions/{kind}/{id}", h.GrantPermission)

		r.Get("/audit-logs", h.ListAuditLogs)
	})
	return r
}

func (h *APIHandler) respond(w http.ResponseWriter, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		h.logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	h.respond(w, status, errorBodyFor(err, status))
}

func actorOf(r *http.Request) domain.Actor {
	actor, _ := ActorFromContext(r.Context())
	return actor
}

// HealthCheck handles health check requests.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, code := "UP", http.StatusOK
	details := map[string]string{"database": "OK"}
	if err := h.svc.HealthCheck(r.Context()); err != nil {
		status, code = "DEGRADED", http.StatusServiceUnavailable
		details["database"] = err.Error()
	}
	h.respond(w, code, map[string]any{"status": status, "details": details})
}

// Namespaces

func (h *APIHandler) CreateNamespace(w http.ResponseWriter, r *http.Request) {
	var req namespaceRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ns := &domain.Namespace{Name: req.Name}
	if err := h.svc.CreateNamespace(r.Context(), actorOf(r), ns); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, ns)
}

func (h *APIHandler) ListNamespaces(w http.ResponseWriter, r *http.Request) {
	namespaces, err := h.svc.ListNamespaces(r.Context(), actorOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, namespaces)
}

func (h *APIHandler) GetNamespace(w http.ResponseWriter, r *http.Request) {
	ns, err := h.svc.GetNamespace(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, ns)
}

func (h *APIHandler) DeleteNamespace(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNamespace(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Zones

func (h *APIHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var req createZoneRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	zone := req.zone()
	if err := h.svc.CreateZone(r.Context(), actorOf(r), zone); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, zone)
}

func (h *APIHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.svc.ListZones(r.Context(), actorOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, zones)
}

func (h *APIHandler) GetZone(w http.ResponseWriter, r *http.Request) {
	zone, err := h.svc.GetZone(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, zone)
}

func (h *APIHandler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	var req updateZoneRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	zone := req.zone(chi.URLParam(r, "id"))
	if err := h.svc.UpdateZone(r.Context(), actorOf(r), zone); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, zone)
}

func (h *APIHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteZone(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Records

func (h *APIHandler) CreateRr(w http.ResponseWriter, r *http.Request) {
	var req rrRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	rr := req.rr("", chi.URLParam(r, "id"))
	if err := h.svc.CreateRr(r.Context(), actorOf(r), rr); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, rr)
}

func (h *APIHandler) ListRrs(w http.ResponseWriter, r *http.Request) {
	rrs, err := h.svc.ListRrs(r.Context(), actorOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rrs)
}

func (h *APIHandler) ListRrsByZone(w http.ResponseWriter, r *http.Request) {
	rrs, err := h.svc.ListRrsByZone(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rrs)
}

func (h *APIHandler) GetRr(w http.ResponseWriter, r *http.Request) {
	rr, err := h.svc.GetRr(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rr)
}

func (h *APIHandler) UpdateRr(w http.ResponseWriter, r *http.Request) {
	var req rrRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	rr := req.rr(chi.URLParam(r, "id"), req.ZoneID)
	if err := h.svc.UpdateRr(r.Context(), actorOf(r), rr); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rr)
}

func (h *APIHandler) DeleteRr(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRr(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Zone rules

func (h *APIHandler) GetZonerule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.svc.GetZonerule(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rule)
}

func (h *APIHandler) SetZonerule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	rule := &domain.Zonerule{ZoneID: chi.URLParam(r, "id"), NamePat: req.NamePat, TypePat: req.TypePat}
	if err := h.svc.SetZonerule(r.Context(), actorOf(r), rule); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rule)
}

func (h *APIHandler) DeleteZonerule(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteZonerule(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Permissions

func (h *APIHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	kind := domain.ObjectKind(chi.URLParam(r, "kind"))
	perms, err := h.svc.GetPermissions(r.Context(), actorOf(r), kind, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if perms == nil {
		perms = []domain.Permission{}
	}
	h.respond(w, http.StatusOK, perms)
}

func (h *APIHandler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	perm := &domain.Permission{
		Kind:     domain.ObjectKind(chi.URLParam(r, "kind")),
		ObjectID: chi.URLParam(r, "id"),
		GroupID:  req.GroupID,
		Action:   req.Action,
	}
	if err := h.svc.GrantPermission(r.Context(), actorOf(r), perm); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, perm)
}

// ListAuditLogs returns the newest audit entries, limited by ?limit=.
func (h *APIHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, r, &domain.FieldValueError{Field: "limit", Value: raw, Reason: "must be a number"})
			return
		}
		limit = n
	}
	logs, err := h.svc.GetAuditLogs(r.Context(), actorOf(r), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, logs)
}
