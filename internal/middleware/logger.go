package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Logger пишет одну строку на запрос.
func Logger(log logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(sw, r)
			log.WithFields(logrus.Fields{
				"reqid":  GetRequestID(r),
				"method": r.Method,
				"uri":    r.RequestURI,
				"status": sw.status,
				"bytes":  sw.bytes,
				"dur":    time.Since(start).String(),
				"ip":     r.RemoteAddr,
				"ua":     r.UserAgent(),
			}).Info("http request")
		})
	}
}
