package fakeapi

import (
	"net/http"
)

type faultKey struct {
	method string
	path   string
}

type fault struct {
	status int
	detail string
	// remaining is the number of requests still to fail; negative means forever
	remaining int
}

// Fail makes every request to method+path answer with status until Heal is called.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[faultKey{method, path}] = fault{status: status, detail: detail, remaining: -1}
}

// FailNext fails only the next request to method+path.
func (s *Server) FailNext(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[faultKey{method, path}] = fault{status: status, detail: detail, remaining: 1}
}

// Heal removes every injected fault.
func (s *Server) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.faults)
}

// Hits reports how many requests reached method+path, failed ones included.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[faultKey{method, path}]
}

// TotalHits reports how many requests reached the server.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := faultKey{r.Method, r.URL.Path}

		s.mu.Lock()
		s.hits[key]++
		f, ok := s.faults[key]
		if ok && f.remaining > 0 {
			f.remaining--
			if f.remaining == 0 {
				delete(s.faults, key)
			} else {
				s.faults[key] = f
			}
		}
		s.mu.Unlock()

		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		s.log.Debug("injecting fault", "method", r.Method, "path", r.URL.Path, "status", f.status)
		if f.detail == "" {
			w.WriteHeader(f.status)
			return
		}
		writeDetail(w, f.status, f.detail)
	})
}
