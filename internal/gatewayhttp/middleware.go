package gatewayhttp

import (
	"bytes"
	"compress/gzip"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// latencyInjection randomly sleeps before handling a request when the
// operator has turned on ENABLE_LATENCY_INJECTION, the same deliberate-chaos
// idiom internal/chaos applies to whole-backend outages, applied here at the
// ingress edge so a tester can exercise client-side timeout handling without
// touching any upstream.
func (s *handlers) latencyInjection(next http.Handler) http.Handler {
	if !s.cfg.Server.EnableLatencyInjection {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delay := time.Duration(rand.Intn(250)) * time.Millisecond
		time.Sleep(delay)
		next.ServeHTTP(w, r)
	})
}

// gzipCapture buffers a handler's response so gzipCompress can decide, once
// the body is complete, whether it clears the configured size threshold.
type gzipCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (g *gzipCapture) WriteHeader(status int) {
	g.status = status
}

func (g *gzipCapture) Write(b []byte) (int, error) {
	return g.buf.Write(b)
}

// gzipCompress gzips the response body when the client advertises
// Accept-Encoding: gzip and the body clears Server.GzipMinSizeBytes, the
// response middleware stage's compression step. Bodies below the threshold
// or clients without gzip support pass through unmodified.
func (s *handlers) gzipCompress(next http.Handler) http.Handler {
	threshold := s.cfg.Server.GzipMinSizeBytes
	if threshold <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !acceptsGzip(r) {
			next.ServeHTTP(w, r)
			return
		}
		capture := &gzipCapture{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(capture, r)

		body := capture.buf.Bytes()
		if len(body) < threshold || w.Header().Get("Content-Encoding") != "" {
			w.Header().Set("Vary", "Accept-Encoding")
			w.WriteHeader(capture.status)
			w.Write(body)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Vary", "Accept-Encoding")
		w.Header().Del("Content-Length")
		w.WriteHeader(capture.status)
		gz := gzip.NewWriter(w)
		gz.Write(body)
		gz.Close()
	})
}

// acceptsGzip reports whether the client's Accept-Encoding header lists gzip.
func acceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(enc) == "gzip" {
			return true
		}
	}
	return false
}

// limitBody caps the request body at the configured multipart/upload ceiling
// so a runaway client can't exhaust gateway memory decoding a huge body
// before field validation even runs.
func (s *handlers) limitBody(next http.Handler) http.Handler {
	max := s.cfg.Server.MaxMultipartSizeBytes
	if max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, max)
		next.ServeHTTP(w, r)
	})
}
