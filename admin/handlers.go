// Package admin implements the diagnostic HTTP server a running monitor
// exposes: a health check, the declared variable list, and the dependency
// graph's dot rendering, each route registered against live monitor state
// rather than left as a commented-out sketch.
package admin

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/trustmon/lola/depgraph"
	"github.com/trustmon/lola/value"
)

// Config for the admin http Server.
type Config struct {
	Addr              string
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
}

// Server is a http server exposing a monitor's diagnostic endpoints.
type Server struct {
	config Config
	http   *http.Server
	router *httprouter.Router
}

// New Server for the given config. Routes are registered separately, by
// NewDiagnosticsServer or by direct calls to AddHandler.
func New(config Config) (server *Server) {
	server = &Server{}
	server.config = config
	server.router = httprouter.New()
	server.http = &http.Server{}
	server.http.Addr = config.Addr

	if config.WriteTimeout != 0 {
		server.http.WriteTimeout = config.WriteTimeout
	}

	if config.ReadTimeout != 0 {
		server.http.ReadTimeout = config.ReadTimeout
	}

	if config.ReadHeaderTimeout != 0 {
		server.http.ReadHeaderTimeout = config.ReadHeaderTimeout
	}

	server.http.Handler = server.router
	return server
}

// NewDiagnosticsServer builds a Server already wired with a running
// monitor's standard diagnostic routes: a liveness check, the declared
// variable list, and the dependency graph's dot rendering. resolver and
// varNames name the monitor being exposed; allowedVars, when non-nil,
// restricts /vars to that subset of varNames instead of the full declared
// set, for a deployment that wants diagnostics open without handing out
// every stream name (config.Monitor.AllowedVars feeds this from a loaded
// Config). /debug/depgraph is always unfiltered; see DepGraphHandler.
func NewDiagnosticsServer(config Config, resolver depgraph.Resolver, varNames []value.VarName, allowedVars []value.VarName) *Server {
	exposed := varNames
	if allowedVars != nil {
		allowed := make(map[value.VarName]struct{}, len(allowedVars))
		for _, v := range allowedVars {
			allowed[v] = struct{}{}
		}
		exposed = exposed[:0:0]
		for _, v := range varNames {
			if _, ok := allowed[v]; ok {
				exposed = append(exposed, v)
			}
		}
	}

	s := New(config)
	s.AddHandler(http.MethodGet, "/healthz", HealthHandler)
	s.AddHandler(http.MethodGet, "/vars", VarsHandler(exposed))
	s.AddHandler(http.MethodGet, "/debug/depgraph", DepGraphHandler(resolver))
	return s
}

// Start serving. Blocks until Close is called or the server fails.
func (s *Server) Start() (err error) {
	if err = s.http.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close serving, waiting for in-flight requests to finish or ctx to expire.
func (s *Server) Close(ctx context.Context) (err error) {
	return s.http.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

// AddHandler adds a handler for the given method and path.
func (s *Server) AddHandler(method, path string, handler Handle) {
	s.router.Handle(method, path, handler)
}

// BasicAuth middleware.
func BasicAuth(h Handle, requiredUser, requiredPassword string) Handle {
	return func(w http.ResponseWriter, r *http.Request, ps Params) {
		user, password, hasAuth := r.BasicAuth()
		if hasAuth && user == requiredUser && password == requiredPassword {
			h(w, r, ps)
		} else {
			w.Header().Set("WWW-Authenticate", "Basic realm=Restricted")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}
	}
}

// Handle is a http handler.
type Handle = httprouter.Handle

// Params from the URL.
type Params = httprouter.Params

// HealthHandler answers a plain liveness check.
func HealthHandler(w http.ResponseWriter, r *http.Request, _ Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// VarsHandler returns a Handle listing names, sorted, as a JSON array.
func VarsHandler(varNames []value.VarName) Handle {
	names := make([]string, len(varNames))
	for i, v := range varNames {
		names[i] = v.String()
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request, _ Params) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(names)
	}
}

// DepGraphHandler renders resolver's current dependency graph as dot,
// suitable for piping into graphviz. It is not restricted by allowedVars:
// the dot rendering exposes structure, not the per-tick values /vars can
// lead a client toward, so NewDiagnosticsServer wires it unfiltered.
func DepGraphHandler(resolver depgraph.Resolver) Handle {
	return func(w http.ResponseWriter, r *http.Request, _ Params) {
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		w.Write([]byte(resolver.DotGraph()))
	}
}
