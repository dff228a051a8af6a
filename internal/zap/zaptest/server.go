// Package zaptest provides an in-process fake of the ZAP JSON API for tests.
//
// The fake keeps just enough state to let a full run succeed: contexts and
// users get ids, spiders and active scans finish after a configurable number
// of status polls, and setOption* calls answer OK. Any endpoint can be
// overridden with Handle or Respond.
package zaptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Call records one request received by the fake.
type Call struct {
	Endpoint string // e.g. "spider/action/scan"
	Params   url.Values
}

// HandlerFunc answers one endpoint. body is encoded as JSON.
type HandlerFunc func(params url.Values) (status int, body any)

// Server is a fake ZAP instance.
type Server struct {
	*httptest.Server

	// APIKey, when set, is required in the X-ZAP-API-Key header.
	APIKey string
	// URLs is what core/view/urls and spider/view/results return.
	URLs []string
	// Alerts is what core/view/alerts returns.
	Alerts []map[string]string
	// PollsUntilDone is how many status polls report "in progress" before
	// a scan reports completion.
	PollsUntilDone int

	mu         sync.Mutex
	calls      []Call
	handlers   map[string]HandlerFunc
	contexts   map[string]int
	users      map[int][]user
	nextScanID int
	polls      map[string]int
}

type user struct {
	id   int
	name string
}

// NewServer starts a fake ZAP instance. Close it when done.
func NewServer() *Server {
	s := &Server{
		handlers: make(map[string]HandlerFunc),
		contexts: make(map[string]int),
		users:    make(map[int][]user),
		polls:    make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

// Handle overrides the answer of endpoint ("component/type/name").
func (s *Server) Handle(endpoint string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[endpoint] = fn
}

// Respond makes endpoint always answer 200 with body.
func (s *Server) Respond(endpoint string, body any) {
	s.Handle(endpoint, func(url.Values) (int, any) { return http.StatusOK, body })
}

// AddContext registers an existing context and returns its id.
func (s *Server) AddContext(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addContextLocked(name)
}

// AddUser registers an existing user in contextID and returns its id.
func (s *Server) AddUser(contextID int, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(contextID, name)
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the requests made to endpoint.
func (s *Server) CallsTo(endpoint string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Endpoint == endpoint {
			out = append(out, c)
		}
	}
	return out
}

// Called reports whether endpoint was requested at least once.
func (s *Server) Called(endpoint string) bool {
	return len(s.CallsTo(endpoint)) > 0
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	endpoint := strings.TrimPrefix(path, "JSON/")
	params := r.URL.Query()

	s.mu.Lock()
	s.calls = append(s.calls, Call{Endpoint: endpoint, Params: params})
	handler, overridden := s.handlers[endpoint]
	apiKey := s.APIKey
	s.mu.Unlock()

	if apiKey != "" && r.Header.Get("X-ZAP-API-Key") != apiKey {
		writeJSON(w, http.StatusForbidden, apiError("bad_api_key", "Missing or invalid API key"))
		return
	}

	var status int
	var body any
	if overridden {
		status, body = handler(params)
	} else {
		s.mu.Lock()
		status, body = s.defaultAnswer(endpoint, params)
		s.mu.Unlock()
	}
	writeJSON(w, status, body)
}

// defaultAnswer simulates the engine. Called with s.mu held.
func (s *Server) defaultAnswer(endpoint string, params url.Values) (int, any) {
	if strings.Contains(endpoint, "/action/setOption") {
		return http.StatusOK, ok()
	}

	switch endpoint {
	case "core/view/version":
		return http.StatusOK, map[string]string{"version": "2.16.0"}
	case "core/action/accessUrl":
		return http.StatusOK, map[string]any{"accessUrl": []any{}}
	case "core/view/urls":
		return http.StatusOK, map[string]any{"urls": s.urls()}
	case "core/view/alerts":
		alerts := s.Alerts
		if alerts == nil {
			alerts = []map[string]string{}
		}
		return http.StatusOK, map[string]any{"alerts": alerts}

	case "spider/action/removeAllScans", "ascan/action/removeAllScans", "ajaxSpider/action/stop":
		return http.StatusOK, ok()
	case "spider/action/scan", "ascan/action/scan":
		return http.StatusOK, map[string]string{"scan": s.newScanID()}
	case "spider/action/scanAsUser", "ascan/action/scanAsUser":
		return http.StatusOK, map[string]string{"scanAsUser": s.newScanID()}
	case "spider/view/status", "ascan/view/status":
		return http.StatusOK, map[string]string{"status": s.progress(endpoint + params.Get("scanId"))}
	case "spider/view/results":
		return http.StatusOK, map[string]any{"results": s.urls()}

	case "ajaxSpider/action/scan", "ajaxSpider/action/scanAsUser":
		return http.StatusOK, ok()
	case "ajaxSpider/view/status":
		status := "stopped"
		if s.poll("ajax") <= s.PollsUntilDone {
			status = "running"
		}
		return http.StatusOK, map[string]string{"status": status}
	case "ajaxSpider/view/numberOfResults":
		return http.StatusOK, map[string]string{"numberOfResults": strconv.Itoa(len(s.URLs))}

	case "context/view/context":
		name := params.Get("contextName")
		id, found := s.contexts[name]
		if !found {
			return http.StatusBadRequest, apiError("context_not_found", "Context not found: "+name)
		}
		return http.StatusOK, map[string]any{"context": map[string]string{
			"id": strconv.Itoa(id), "name": name, "inScope": "true",
		}}
	case "context/action/newContext":
		name := params.Get("contextName")
		if _, found := s.contexts[name]; found {
			return http.StatusBadRequest, apiError("already_exists", "Already exists: "+name)
		}
		return http.StatusOK, map[string]string{"contextId": strconv.Itoa(s.addContextLocked(name))}
	case "context/action/includeInContext", "context/action/excludeFromContext",
		"context/action/setContextInScope", "context/action/includeAllContextTechnologies",
		"context/action/includeContextTechnologies", "context/action/excludeContextTechnologies":
		return http.StatusOK, ok()

	case "users/view/usersList":
		cid, _ := strconv.Atoi(params.Get("contextId"))
		list := []map[string]string{}
		for _, u := range s.users[cid] {
			list = append(list, map[string]string{
				"id": strconv.Itoa(u.id), "name": u.name, "enabled": "true", "contextId": strconv.Itoa(cid),
			})
		}
		return http.StatusOK, map[string]any{"usersList": list}
	case "users/action/newUser":
		cid, _ := strconv.Atoi(params.Get("contextId"))
		return http.StatusOK, map[string]string{"userId": strconv.Itoa(s.addUserLocked(cid, params.Get("name")))}
	case "users/action/setAuthenticationCredentials", "users/action/setUserEnabled",
		"forcedUser/action/setForcedUser", "forcedUser/action/setForcedUserModeEnabled":
		return http.StatusOK, ok()
	}

	return http.StatusBadRequest, apiError("bad_action", "No implementation for "+endpoint)
}

func (s *Server) addContextLocked(name string) int {
	if id, found := s.contexts[name]; found {
		return id
	}
	// ZAP's "Default Context" holds id 1.
	id := len(s.contexts) + 2
	s.contexts[name] = id
	return id
}

func (s *Server) addUserLocked(contextID int, name string) int {
	total := 0
	for _, us := range s.users {
		total += len(us)
	}
	s.users[contextID] = append(s.users[contextID], user{id: total, name: name})
	return total
}

func (s *Server) newScanID() string {
	id := s.nextScanID
	s.nextScanID++
	return strconv.Itoa(id)
}

func (s *Server) poll(key string) int {
	s.polls[key]++
	return s.polls[key]
}

func (s *Server) progress(key string) string {
	n := s.poll(key)
	if n <= s.PollsUntilDone {
		return strconv.Itoa(n * 100 / (s.PollsUntilDone + 1))
	}
	return "100"
}

func (s *Server) urls() []string {
	if s.URLs == nil {
		return []string{}
	}
	return s.URLs
}

func ok() map[string]string {
	return map[string]string{"Result": "OK"}
}

func apiError(code, message string) map[string]string {
	return map[string]string{"code": code, "message": message}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
