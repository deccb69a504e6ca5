// Package romatest provides an in-memory ROMA backend for tests.
//
// The server speaks the {code, msg, data} envelope, checks bearer tokens and
// API keys the way the real backend does, and keeps users, roles, spaces,
// resources, API keys and the blacklist in memory.
package romatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/binrc/roma-client-go/internal/api"
)

// Fixed credentials accepted by a new server.
const (
	Username = "admin"
	Password = "secret"
	Token    = "test-token"
	APIKey   = "test-api-key"
	Email    = "admin@roma.test"
)

// RecordedRequest is a request as seen by the server.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         map[string][]string
	Authorization string
	APIKeyHeader  string
	Body          map[string]any
}

// Server is a fake ROMA backend.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []RecordedRequest
	failures  map[string]failure
	users     []api.User
	roles     []api.Role
	resources []api.Resource
	spaces    []api.Space
	apiKeys   []api.APIKey
	blacklist []api.BlacklistEntry
	sshKey    api.SSHKey
	nextID    int64
}

type failure struct {
	status      int
	contentType string
	body        string
}

// NewServer starts a server seeded with the admin user. Close it when done.
func NewServer() *Server {
	s := &Server{
		failures: make(map[string]failure),
		nextID:   100,
		roles:    []api.Role{{ID: 1, Name: "super", Desc: "full access"}, {ID: 2, Name: "ops"}},
	}
	s.users = []api.User{{ID: 1, Username: Username, Email: Email, Roles: []api.Role{s.roles[0]}}}
	s.apiKeys = []api.APIKey{{ID: 1, Key: APIKey, Description: "seed"}}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// APIRoot returns the versioned API root of the server.
func (s *Server) APIRoot() string {
	return s.URL + "/api/v1/"
}

// Requests returns every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}
	}
	return s.requests[len(s.requests)-1]
}

// FailNext makes the next request to "METHOD /path" (path relative to the
// API root, e.g. "GET users") answer with status, content type and body.
func (s *Server) FailNext(route string, status int, contentType, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, contentType: contentType, body: body}
}

// AddBlacklistEntry seeds a banned address.
func (s *Server) AddBlacklistEntry(e api.BlacklistEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist = append(s.blacklist, e)
}

// AddResource seeds a resource.
func (s *Server) AddResource(r api.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, r)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Get("/system/health", func(w http.ResponseWriter, r *http.Request) {
			ok(w, map[string]any{"status": "ok"})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/system/info", s.systemInfo)

			r.Get("/users", s.listUsers)
			r.Post("/users", s.createUser)
			r.Get("/users/me", s.currentUser)
			r.Put("/users/me", s.updateProfile)
			r.Get("/users/{id}", s.getUser)
			r.Put("/users/{id}", s.updateUser)
			r.Delete("/users/{id}", s.deleteUser)

			r.Get("/roles", s.listRoles)
			r.Post("/roles", s.createRole)
			r.Get("/roles/{id}", s.getRole)
			r.Put("/roles/{id}", s.updateRole)
			r.Delete("/roles/{id}", s.deleteRole)

			r.Get("/resources", s.listResources)
			r.Post("/resources", s.createResource)
			r.Get("/resources/database-types", func(w http.ResponseWriter, r *http.Request) {
				ok(w, []string{"mysql", "postgresql", "redis", "mongodb"})
			})
			r.Get("/resources/{id}", s.getResource)
			r.Put("/resources/{id}", s.updateResource)
			r.Delete("/resources/{id}", s.deleteResource)

			r.Post("/ssh/{op}", s.sshOperation)
			r.Get("/connectors/{type}/{id}", s.connector)
			r.Post("/connectors/{type}/{id}/{action}", s.connector)

			r.Get("/logs/{kind}", s.logs)

			r.Get("/apikeys", s.listAPIKeys)
			r.Post("/apikeys", s.createAPIKey)
			r.Get("/apikeys/{id}", s.getAPIKey)
			r.Delete("/apikeys/{id}", s.deleteAPIKey)

			r.Get("/ssh-keys/me", s.getSSHKey)
			r.Post("/ssh-keys/me/upload", s.uploadSSHKey)
			r.Post("/ssh-keys/me/generate", s.generateSSHKey)

			r.Get("/spaces", s.listSpaces)
			r.Post("/spaces", s.createSpace)
			r.Get("/spaces/{id}", s.getSpace)
			r.Post("/spaces/{id}/members", s.addSpaceMember)
			r.Delete("/spaces/{id}/members", s.removeSpaceMember)

			r.Get("/blacklist", s.listBlacklist)
			r.Post("/blacklist", s.addBlacklist)
			r.Get("/blacklist/ip-info/{ip}", s.ipInfo)
			r.Get("/blacklist/{ip}", s.getBlacklist)
			r.Delete("/blacklist/{ip}", s.removeBlacklist)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, 404, "not found", nil)
	})
	return r
}

// record stores the request and replaces the body so handlers can read it
// again.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			APIKeyHeader:  r.Header.Get("apikey"),
		}
		if r.Body != nil {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				rec.Body = body
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		s.mu.Unlock()

		next.ServeHTTP(w, r.WithContext(withBody(r.Context(), rec.Body)))
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api/v1/")

		s.mu.Lock()
		f, found := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()

		if !found {
			next.ServeHTTP(w, r)
			return
		}
		if f.contentType != "" {
			w.Header().Set("Content-Type", f.contentType)
		}
		w.WriteHeader(f.status)
		w.Write([]byte(f.body))
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			if auth == "Bearer "+Token {
				next.ServeHTTP(w, r)
				return
			}
			writeEnvelope(w, http.StatusUnauthorized, 401, "invalid token", nil)
			return
		}

		key := r.Header.Get("apikey")
		if key == "" {
			key = r.URL.Query().Get("apikey")
		}
		if key != "" && s.validAPIKey(key) {
			next.ServeHTTP(w, r)
			return
		}
		writeEnvelope(w, http.StatusUnauthorized, 401, "authentication required", nil)
	})
}

func (s *Server) validAPIKey(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.apiKeys {
		if k.Value() == key {
			return true
		}
	}
	return false
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func ok(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, 200, "success", data)
}

// appError answers 200 with a non-success envelope code, the way the
// backend reports validation failures.
func appError(w http.ResponseWriter, code int, msg string) {
	writeEnvelope(w, http.StatusOK, code, msg, nil)
}

func writeEnvelope(w http.ResponseWriter, status, code int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg, "data": data})
}
