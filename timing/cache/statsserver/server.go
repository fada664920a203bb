// Package statsserver exposes a running cache's stats and block contents
// over HTTP, in the idiom of Akita's monitoring.Monitor server.
package statsserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sarchlab/m2sim/timing/cache"
)

// Server answers introspection requests against a fixed set of registered
// caches, keyed by the name they were registered under.
type Server struct {
	portNumber int
	caches     map[string]*cache.Comp
}

// NewServer creates a Server listening on portNumber once Start is called.
func NewServer(portNumber int) *Server {
	return &Server{
		portNumber: portNumber,
		caches:     make(map[string]*cache.Comp),
	}
}

// Register makes c's stats and block table reachable under name.
func (s *Server) Register(name string, c *cache.Comp) {
	s.caches[name] = c
}

// Start blocks serving the registered routes. Callers typically run it in
// its own goroutine.
func (s *Server) Start() error {
	r := mux.NewRouter()
	r.HandleFunc("/stats/{name}", s.stats)
	r.HandleFunc("/blocks/{name}", s.blocks)
	r.HandleFunc("/caches", s.listCaches)

	return http.ListenAndServe(fmt.Sprintf(":%d", s.portNumber), r)
}

func (s *Server) listCaches(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}

	s.writeJSON(w, names)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	c, ok := s.caches[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("cache not found"))
		return
	}

	s.writeJSON(w, c.Stats())
}

func (s *Server) blocks(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	c, ok := s.caches[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("cache not found"))
		return
	}

	s.writeJSON(w, c.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	_, _ = w.Write(bytes)
}
