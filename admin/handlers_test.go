package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustmon/lola/depgraph"
	"github.com/trustmon/lola/value"
)

func newServer(t *testing.T, resolver depgraph.Resolver, varNames []value.VarName) *Server {
	return NewDiagnosticsServer(Config{Addr: "127.0.0.1:0"}, resolver, varNames, nil)
}

func TestHealthzReturnsOK(t *testing.T) {
	s := newServer(t, depgraph.Empty{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestVarsListsSortedNames(t *testing.T) {
	x, y := value.New("x"), value.New("y")
	s := newServer(t, depgraph.Empty{}, []value.VarName{y, x})

	req := httptest.NewRequest(http.MethodGet, "/vars", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"x", "y"}, got)
}

func TestDepGraphWritesDot(t *testing.T) {
	x, y := value.New("x"), value.New("y")
	g := depgraph.New()
	edges := make(depgraph.Edges)
	edges.Add(x, 0)
	g.AddDependency(y, edges)
	s := newServer(t, g, nil)

	req := httptest.NewRequest(http.MethodGet, "/debug/depgraph", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "digraph")
}

func TestVarsHonorsAllowedVarsRestriction(t *testing.T) {
	x, y := value.New("x"), value.New("y")
	s := NewDiagnosticsServer(Config{Addr: "127.0.0.1:0"}, depgraph.Empty{}, []value.VarName{y, x}, []value.VarName{x})

	req := httptest.NewRequest(http.MethodGet, "/vars", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"x"}, got)
}

func TestBasicAuthRejectsWrongCredentials(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	s.AddHandler(http.MethodGet, "/protected", BasicAuth(HealthHandler, "admin", "secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
