// Package taxjartest provides a stub TaxJar API server and canned API
// responses for tests.
package taxjartest

import (
	"embed"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"

	"github.com/gin-gonic/gin"
)

// Fixture names shipped with the package.
const (
	FixtureTaxes              = "taxes.json"
	FixtureTaxesInternational = "taxes_international.json"
	FixtureTaxesCanada        = "taxes_canada.json"
	FixtureErrorUnauthorized  = "error_unauthorized.json"
)

//go:embed fixtures/*.json
var fixtures embed.FS

// Fixture returns the contents of a named fixture.
func Fixture(name string) ([]byte, error) {
	return fixtures.ReadFile(path.Join("fixtures", name))
}

// Request is a request received by a Server.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type stub struct {
	status int
	body   []byte
}

// Server is an HTTP server answering API routes with stubbed responses.
// Unstubbed routes get a 404 error document.
type Server struct {
	mu       sync.Mutex
	stubs    map[string]stub
	requests []Request
	apiKey   string

	httpServer *httptest.Server
}

// NewServer starts a Server. Call Close when done.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{stubs: make(map[string]stub)}

	engine := gin.New()
	engine.Any("/*path", s.handle)
	s.httpServer = httptest.NewServer(engine)
	return s
}

// Close shuts the server down.
func (s *Server) Close() {
	s.httpServer.Close()
}

// URL returns the API base URL, ending in the /v2 version segment.
func (s *Server) URL() string {
	return s.httpServer.URL + "/v2"
}

// RequireAPIKey makes the server answer 401 to requests not bearing key.
func (s *Server) RequireAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// Stub answers method requests to path with status and body.
func (s *Server) Stub(method, path string, status int, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[method+" "+path] = stub{status: status, body: body}
}

// StubFixture is Stub with the body read from a named fixture.
func (s *Server) StubFixture(method, path string, status int, fixture string) error {
	body, err := Fixture(fixture)
	if err != nil {
		return err
	}
	s.Stub(method, path, status, body)
	return nil
}

// Requests returns the requests received so far, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	st, ok := s.stubs[c.Request.Method+" "+c.Request.URL.Path]
	apiKey := s.apiKey
	s.mu.Unlock()

	if apiKey != "" && c.GetHeader("Authorization") != "Bearer "+apiKey {
		unauthorized, _ := Fixture(FixtureErrorUnauthorized)
		c.Data(http.StatusUnauthorized, "application/json; charset=utf-8", unauthorized)
		return
	}

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Not Found",
			"detail": fmt.Sprintf("No such route '%s %s'", c.Request.Method, c.Request.URL.Path),
			"status": http.StatusNotFound,
		})
		return
	}

	c.Data(st.status, "application/json; charset=utf-8", st.body)
}
