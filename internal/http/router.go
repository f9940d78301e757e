package http

import (
	"net/http"
	"strings"
	"time"

	"jobsite/internal/domain/user"
	"jobsite/internal/http/handlers"
	"jobsite/internal/http/metrics"
	httpmw "jobsite/internal/http/middleware"
)

type RouterDependencies struct {
	AuthHandler        *handlers.AuthHandler
	JobHandler         *handlers.JobHandler
	ApplicationHandler *handlers.ApplicationHandler
	AuthMiddleware     *httpmw.AuthMiddleware
	Metrics            *metrics.Collector
	Limiter            httpmw.Limiter
	RequestTimeout     time.Duration
	MaxBodyBytes       int64
}

type Router struct {
	deps    RouterDependencies
	handler http.Handler
	login   http.Handler
	forgot  http.Handler
}

const (
	defaultMaxBodyBytes = 12 << 20
	loginLimit          = 10
	forgotLimit         = 5
)

func NewRouter(deps RouterDependencies) http.Handler {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = defaultMaxBodyBytes
	}
	r := &Router{
		deps:   deps,
		login:  httpmw.RateLimit(deps.Limiter, clientKey("login:ip:"), loginLimit, time.Minute)(http.HandlerFunc(deps.AuthHandler.Login)),
		forgot: httpmw.RateLimit(deps.Limiter, clientKey("forgot:ip:"), forgotLimit, time.Minute)(http.HandlerFunc(deps.AuthHandler.ForgotPassword)),
	}
	// Metrics sits outside Recover so recovered panics count as errors.
	r.handler = httpmw.Chain(http.HandlerFunc(r.route), httpmw.RequestID, httpmw.Logging, httpmw.Metrics(deps.Metrics), httpmw.Recover, httpmw.BodyLimit(deps.MaxBodyBytes), httpmw.Timeout(deps.RequestTimeout))
	return r
}

func clientKey(prefix string) func(*http.Request) string {
	return func(req *http.Request) string {
		return prefix + httpmw.ClientIP(req)
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) route(w http.ResponseWriter, req *http.Request) {
	if !strings.HasPrefix(req.URL.Path, handlers.APIPrefix+"/") {
		http.NotFound(w, req)
		return
	}
	path := strings.TrimSuffix(strings.TrimPrefix(req.URL.Path, handlers.APIPrefix), "/")

	switch {
	case req.Method == http.MethodGet && path == "/health":
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
		return
	case req.Method == http.MethodGet && path == "/metrics":
		metrics.NewHandler(r.deps.Metrics).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && path == "/auth/register":
		r.deps.AuthHandler.Register(w, req)
		return
	case req.Method == http.MethodPost && path == "/auth/login":
		r.login.ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && path == "/auth/refresh":
		r.deps.AuthHandler.Refresh(w, req)
		return
	case req.Method == http.MethodPost && path == "/auth/logout":
		r.deps.AuthHandler.Logout(w, req)
		return
	case req.Method == http.MethodPost && path == "/auth/password/forgot":
		r.forgot.ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && path == "/auth/password/reset":
		r.deps.AuthHandler.ResetPassword(w, req)
		return
	}

	if path == "/auth/me" || path == "/dashboard" || hasResource(path, "/jobs") || hasResource(path, "/applications") {
		protected := r.deps.AuthMiddleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.handleProtected(w, req, path)
		}))
		protected.ServeHTTP(w, req)
		return
	}

	http.NotFound(w, req)
}

func (r *Router) handleProtected(w http.ResponseWriter, req *http.Request, path string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	jobs := r.deps.JobHandler
	applications := r.deps.ApplicationHandler

	switch {
	case req.Method == http.MethodGet && path == "/auth/me":
		r.deps.AuthHandler.Me(w, req)
		return
	case req.Method == http.MethodGet && path == "/dashboard":
		httpmw.RequireRole(user.RoleRecruiter)(http.HandlerFunc(jobs.Dashboard)).ServeHTTP(w, req)
		return

	case req.Method == http.MethodGet && path == "/jobs":
		jobs.List(w, req)
		return
	case req.Method == http.MethodPost && path == "/jobs":
		httpmw.RequireRole(user.RoleRecruiter)(http.HandlerFunc(jobs.Create)).ServeHTTP(w, req)
		return
	case segments[0] == "jobs" && len(segments) == 2:
		switch req.Method {
		case http.MethodGet:
			jobs.Get(w, req)
		case http.MethodPut:
			jobs.Replace(w, req)
		case http.MethodPatch:
			jobs.Update(w, req)
		case http.MethodDelete:
			jobs.Delete(w, req)
		default:
			methodNotAllowed(w, "GET, PUT, PATCH, DELETE")
		}
		return
	case req.Method == http.MethodPost && segments[0] == "jobs" && len(segments) == 3:
		jobs.ChangeStatus(w, req)
		return

	case req.Method == http.MethodGet && path == "/applications":
		applications.List(w, req)
		return
	case req.Method == http.MethodPost && path == "/applications":
		httpmw.RequireRole(user.RoleCandidate)(http.HandlerFunc(applications.Apply)).ServeHTTP(w, req)
		return
	case segments[0] == "applications" && len(segments) == 2:
		switch req.Method {
		case http.MethodGet:
			applications.Get(w, req)
		case http.MethodPatch:
			applications.ChangeStatus(w, req)
		default:
			methodNotAllowed(w, "GET, PATCH")
		}
		return
	case req.Method == http.MethodPost && segments[0] == "applications" && len(segments) == 3 && segments[2] == "change_status":
		applications.ChangeStatus(w, req)
		return
	case req.Method == http.MethodGet && segments[0] == "applications" && len(segments) == 3 && segments[2] == "resume":
		applications.Resume(w, req)
		return
	}

	http.NotFound(w, req)
}

func hasResource(path, resource string) bool {
	return path == resource || strings.HasPrefix(path, resource+"/")
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
