package lab

import (
	"log/slog"
	"net/http"

	"labconnect/internal/httputil"
	"labconnect/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	sessions *session.Manager
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service Service, sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
		validate: httputil.NewValidator(),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(session.RequireSession(h.sessions, h.logger))

		r.Get("/courses/{id}/labs", h.ListByCourse)
		r.Get("/labs/{id}", h.GetLab)
		r.With(session.RequireRole(session.RoleTeacher, h.logger)).Post("/labs", h.CreateLab)
	})
}

func (h *Handler) CreateLab(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	var req CreateLabRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	lab, err := h.service.CreateLab(r.Context(), profile.ID, req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "lab created", "lab_id", lab.ID, "course_id", lab.CourseID)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"lab": lab})
}

func (h *Handler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	labs, err := h.service.ListByCourse(r.Context(), id)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"labs": labs})
}

func (h *Handler) GetLab(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	lab, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"lab": lab})
}
