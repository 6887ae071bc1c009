package middleware

import (
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Timeout bounds request handling with timeout. Multipart uploads get
// uploadTimeout instead, and the connection read and write deadlines are
// pushed out to match so large bodies are not cut off by the server's
// ReadTimeout.
func Timeout(timeout, uploadTimeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		regular := middleware.Timeout(timeout)(next)
		upload := middleware.Timeout(uploadTimeout)(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMultipartUpload(r) {
				regular.ServeHTTP(w, r)
				return
			}

			deadline := time.Now().Add(uploadTimeout)
			rc := http.NewResponseController(w)
			// Unsupported on recorders and some wrappers; the context deadline still applies
			_ = rc.SetReadDeadline(deadline)
			_ = rc.SetWriteDeadline(deadline)

			upload.ServeHTTP(w, r)
		})
	}
}

func isMultipartUpload(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
