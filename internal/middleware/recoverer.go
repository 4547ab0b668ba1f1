package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hjiwane/apartment-society-backend/internal/models"
)

// Recoverer перехватывает панику в обработчике, пишет лог со стеком
// и возвращает 500 в формате application/problem+json.
func Recoverer(log logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					reqid := GetRequestID(r)
					log.WithFields(logrus.Fields{
						"reqid":  reqid,
						"uri":    r.RequestURI,
						"method": r.Method,
					}).Errorf("panic: %v\nstack:\n%s", rec, debug.Stack())
					models.WriteProblem(w, models.Problem{
						Status: http.StatusInternalServerError,
						Code:   "internal_server_error",
						Detail: "unexpected server error (see logs by reqid)",
						Extra:  map[string]any{"reqid": reqid},
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
