// Package api is the HTTP surface over the core services: one handler per
// core operation, bearer-token authentication and problem+json errors.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hjiwane/apartment-society-backend/internal/apperr"
	"github.com/hjiwane/apartment-society-backend/internal/core"
	"github.com/hjiwane/apartment-society-backend/internal/middleware"
	"github.com/hjiwane/apartment-society-backend/internal/models"
)

type Handler struct {
	svc      *core.Services
	log      logrus.FieldLogger
	validate *validator.Validate
}

func New(svc *core.Services, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: log, validate: validator.New()}
}

// Register вешает все маршруты. Публичны только регистрация и логин.
func (h *Handler) Register(r *mux.Router) {
	const id = "/{id:[0-9]+}"

	pub := r.NewRoute().Subrouter()
	pub.HandleFunc("/users", h.Signup).Methods(http.MethodPost)
	pub.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	priv := r.NewRoute().Subrouter()
	priv.Use(h.Authenticate)

	priv.HandleFunc("/users"+id, h.GetUser).Methods(http.MethodGet)

	priv.HandleFunc("/buildings", h.CreateBuilding).Methods(http.MethodPost)
	priv.HandleFunc("/buildings", h.ListBuildings).Methods(http.MethodGet)
	priv.HandleFunc("/buildings"+id, h.GetBuilding).Methods(http.MethodGet)
	priv.HandleFunc("/buildings"+id+"/users", h.ListBuildingUsers).Methods(http.MethodGet)

	priv.HandleFunc("/units", h.CreateUnit).Methods(http.MethodPost)
	priv.HandleFunc("/units", h.ListUnits).Methods(http.MethodGet)
	priv.HandleFunc("/units"+id, h.GetUnit).Methods(http.MethodGet)

	priv.HandleFunc("/memberships", h.CreateMembership).Methods(http.MethodPost)
	priv.HandleFunc("/memberships", h.ListMemberships).Methods(http.MethodGet)
	priv.HandleFunc("/memberships"+id, h.UpdateMembership).Methods(http.MethodPatch)
	priv.HandleFunc("/memberships"+id, h.DeleteMembership).Methods(http.MethodDelete)

	priv.HandleFunc("/maintenance-requests", h.CreateRequest).Methods(http.MethodPost)
	priv.HandleFunc("/maintenance-requests", h.ListRequests).Methods(http.MethodGet)
	priv.HandleFunc("/maintenance-requests"+id, h.GetRequest).Methods(http.MethodGet)
	priv.HandleFunc("/maintenance-requests"+id, h.UpdateRequestStatus).Methods(http.MethodPatch)

	priv.HandleFunc("/votes", h.Vote).Methods(http.MethodPost)
}

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail пишет ошибку как problem+json. Причина 5xx уходит только в лог.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	reqid := middleware.GetRequestID(r)

	detail := "unexpected server error"
	var ae *apperr.Error
	if errors.As(err, &ae) && kind != apperr.KindInternal {
		detail = ae.Message
	}

	entry := h.log.WithFields(logrus.Fields{"reqid": reqid, "status": status, "method": r.Method, "uri": r.RequestURI})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Debug("request rejected")
	}

	if kind == apperr.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	models.WriteProblem(w, models.Problem{
		Status: status,
		Code:   kind.String(),
		Detail: detail,
		Extra:  map[string]any{"reqid": reqid},
	})
}

// decode читает JSON-тело и прогоняет теги validate.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid payload", Err: err}
	}
	if err := h.validate.Struct(dst); err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Message: describe(err), Err: err}
	}
	return nil
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "Invalid payload"
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func pathID(r *http.Request) (uint, error) {
	return parseID(mux.Vars(r)["id"], "id")
}

func queryID(r *http.Request, name string) (uint, error) {
	return parseID(r.URL.Query().Get(name), name)
}

func parseID(s, name string) (uint, error) {
	if s == "" {
		return 0, apperr.Validation("%s is required", name)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return uint(n), nil
}
