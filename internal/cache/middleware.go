package cache

import (
	"bytes"
	"net/http"
)

// VaryFunc returns the per-request discriminator folded into the cache key,
// such as the caller's identity when responses embed user data.
type VaryFunc func(r *http.Request) string

// Middleware serves GET requests from the cache and stores successful
// responses under tag.
func (c *OutputCache) Middleware(tag string, vary VaryFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			varyBy := ""
			if vary != nil {
				varyBy = vary(r)
			}
			key := Key(r.Method, r.URL.Path, r.URL.Query().Encode(), varyBy)

			if entry, ok := c.Get(key); ok {
				writeEntry(w, entry)
				return
			}

			generation := c.generation(tag)
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status != http.StatusOK {
				return
			}
			header := w.Header().Clone()
			header.Del("X-Request-ID")
			c.setIfCurrent(key, Entry{
				Status: rec.status,
				Header: header,
				Body:   rec.body.Bytes(),
			}, tag, generation)
		})
	}
}

func writeEntry(w http.ResponseWriter, entry Entry) {
	for k, values := range entry.Header {
		w.Header()[k] = append([]string(nil), values...)
	}
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(entry.Status)
	_, _ = w.Write(entry.Body)
}

// recorder tees the response body while passing it through.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
		r.ResponseWriter.WriteHeader(code)
	}
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
