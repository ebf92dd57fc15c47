// Package testutil provides a fake complaint backend for tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Reply is a canned response.
type Reply struct {
	Status int
	// Body is written verbatim when it is a string or []byte, JSON encoded otherwise.
	Body interface{}
}

// JSON builds a reply with the given status and JSON body.
func JSON(status int, body interface{}) Reply {
	return Reply{Status: status, Body: body}
}

// OK builds a 200 reply.
func OK(body interface{}) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

// FileUpload is a file part seen in a multipart request.
type FileUpload struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Request is a request received by the backend.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte

	// Form and Files are populated for multipart/form-data requests.
	Form  map[string][]string
	Files map[string][]FileUpload
}

// Multipart reports whether the request was multipart/form-data.
func (r Request) Multipart() bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "multipart/form-data"
}

// JSON decodes the request body into a generic map.
func (r Request) JSON() map[string]interface{} {
	var out map[string]interface{}
	_ = json.Unmarshal(r.Body, &out)
	return out
}

// HasAuthorization reports whether the Authorization header was sent at all.
func (r Request) HasAuthorization() bool {
	_, ok := r.Header["Authorization"]
	return ok
}

// HandlerFunc is a dynamic route handler receiving the mux path variables.
type HandlerFunc func(r *http.Request, vars map[string]string) Reply

type route struct {
	replies []Reply
	calls   int
	handler HandlerFunc
}

// Backend is an httptest server routing /api/* through gorilla/mux.
type Backend struct {
	mu       sync.Mutex
	server   *httptest.Server
	api      *mux.Router
	routes   map[string]*route
	requests []Request

	requiredToken string
	publicPaths   map[string]bool
}

// NewBackend starts a backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		routes:      make(map[string]*route),
		publicPaths: map[string]bool{"/api/login": true, "/api/register": true},
	}

	root := mux.NewRouter()
	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeReply(w, JSON(http.StatusNotFound, map[string]string{"message": "Not Found"}))
	})
	b.api = root.PathPrefix("/api").Subrouter()
	b.api.Use(b.authMiddleware)

	b.server = httptest.NewServer(b.record(root))
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the backend host, without the /api suffix.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close stops the server early, e.g. to simulate an unreachable backend.
func (b *Backend) Close() {
	b.server.Close()
}

// On registers canned replies for method and pattern (relative to /api).
// Replies are served in order and the last one repeats.
func (b *Backend) On(method, pattern string, replies ...Reply) {
	if len(replies) == 0 {
		replies = []Reply{OK(map[string]interface{}{})}
	}
	b.register(method, pattern, &route{replies: replies})
}

// Handle registers a dynamic handler for method and pattern.
func (b *Backend) Handle(method, pattern string, fn HandlerFunc) {
	b.register(method, pattern, &route{handler: fn})
}

// RequireToken makes every non-public route answer 401 unless the request
// carries "Bearer <token>".
func (b *Backend) RequireToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requiredToken = token
}

// Requests returns every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Last returns the most recent request. It panics when none was received.
func (b *Backend) Last() Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

// RequestsTo returns requests matching method and the full path.
func (b *Backend) RequestsTo(method, path string) []Request {
	var out []Request
	for _, req := range b.Requests() {
		if req.Method == method && req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

func (b *Backend) register(method, pattern string, rt *route) {
	key := method + " " + pattern

	b.mu.Lock()
	_, exists := b.routes[key]
	b.routes[key] = rt
	b.mu.Unlock()

	if exists {
		return
	}
	b.api.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		current := b.routes[key]
		var reply Reply
		if current.handler == nil {
			idx := current.calls
			if idx >= len(current.replies) {
				idx = len(current.replies) - 1
			}
			reply = current.replies[idx]
		}
		current.calls++
		handler := current.handler
		b.mu.Unlock()

		if handler != nil {
			reply = handler(r, mux.Vars(r))
		}
		writeReply(w, reply)
	}).Methods(method)
}

func (b *Backend) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		token := b.requiredToken
		public := b.publicPaths[r.URL.Path]
		b.mu.Unlock()

		if token != "" && !public && r.Header.Get("Authorization") != "Bearer "+token {
			writeReply(w, JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."}))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		req := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		}
		parseMultipart(&req)

		b.mu.Lock()
		b.requests = append(b.requests, req)
		b.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func parseMultipart(req *Request) {
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return
	}
	reader := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"])

	req.Form = make(map[string][]string)
	req.Files = make(map[string][]FileUpload)
	for {
		part, err := reader.NextPart()
		if err != nil {
			return
		}
		content, _ := io.ReadAll(part)
		if part.FileName() != "" {
			req.Files[part.FormName()] = append(req.Files[part.FormName()], FileUpload{
				FileName:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Content:     content,
			})
		} else {
			req.Form[part.FormName()] = append(req.Form[part.FormName()], string(content))
		}
		part.Close()
	}
}

func writeReply(w http.ResponseWriter, reply Reply) {
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}

	var data []byte
	switch body := reply.Body.(type) {
	case nil:
	case string:
		data = []byte(body)
	case []byte:
		data = body
	default:
		data, _ = json.Marshal(body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
