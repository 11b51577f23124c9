package submission

import (
	"log/slog"
	"net/http"
	"strconv"

	"labconnect/internal/apperr"
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

		r.Group(func(r chi.Router) {
			r.Use(session.RequireRole(session.RoleStudent, h.logger))
			r.Post("/submissions", h.Submit)
			r.Get("/student/submissions", h.ListForStudent)
		})

		r.Group(func(r chi.Router) {
			r.Use(session.RequireRole(session.RoleTeacher, h.logger))
			r.Get("/labs/{id}/submissions", h.ListByLab)
			r.Put("/submissions/{id}/grade", h.Grade)
			r.Put("/submissions/{id}/revision", h.RequestRevision)
		})
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	var req SubmitRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	submission, err := h.service.Submit(r.Context(), profile.ID, req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "submission created", "submission_id", submission.ID, "lab_id", submission.LabID, "student_id", profile.ID)
	httputil.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"submission": submission})
}

func (h *Handler) ListForStudent(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	var labID *int
	if raw := r.URL.Query().Get("lab_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			httputil.RespondWithServiceError(w, r, h.logger, apperr.Validation("invalid lab_id"))
			return
		}
		labID = &id
	}

	submissions, err := h.service.ListForStudent(r.Context(), profile.ID, labID)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"submissions": submissions})
}

func (h *Handler) ListByLab(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	labID, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	submissions, err := h.service.ListByLab(r.Context(), profile.ID, labID)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"submissions": submissions})
}

func (h *Handler) Grade(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	var req GradeRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	submission, err := h.service.Grade(r.Context(), profile.ID, id, req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "submission graded", "submission_id", id, "score", *submission.Score)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"submission": submission})
}

func (h *Handler) RequestRevision(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	var req RevisionRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	submission, err := h.service.RequestRevision(r.Context(), profile.ID, id, req.TeacherComment)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "revision requested", "submission_id", id)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"submission": submission})
}
