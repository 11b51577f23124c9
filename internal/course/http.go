package course

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

		r.Get("/courses/search", h.Search)
		r.Get("/courses/invite/{code}", h.GetByInvite)
		r.Get("/courses/{id}", h.GetCourse)
		r.Get("/courses/{id}/students", h.ListStudents)

		r.Group(func(r chi.Router) {
			r.Use(session.RequireRole(session.RoleTeacher, h.logger))
			r.Get("/teacher/courses", h.ListTeacherCourses)
			r.Post("/courses", h.CreateCourse)
		})

		r.Group(func(r chi.Router) {
			r.Use(session.RequireRole(session.RoleStudent, h.logger))
			r.Get("/student/courses", h.ListStudentCourses)
			r.Post("/courses/join", h.Join)
			r.Post("/courses/{id}/enroll", h.Enroll)
		})
	})
}

func viewAll(courses []Course, userID int) []*Course {
	views := make([]*Course, 0, len(courses))
	for i := range courses {
		views = append(views, courses[i].ViewFor(userID))
	}
	return views
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	var req CreateCourseRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	course, err := h.service.CreateCourse(r.Context(), profile.ID, req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "course created", "course_id", course.ID, "teacher_id", profile.ID)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"course": course.ViewFor(profile.ID)})
}

func (h *Handler) ListTeacherCourses(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	courses, err := h.service.ListForTeacher(r.Context(), profile.ID)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"courses": viewAll(courses, profile.ID)})
}

func (h *Handler) ListStudentCourses(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	courses, err := h.service.ListForStudent(r.Context(), profile.ID)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"courses": viewAll(courses, profile.ID)})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	courses, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"courses": viewAll(courses, profile.ID)})
}

func (h *Handler) GetByInvite(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	course, err := h.service.GetByInvite(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"course": course.ViewFor(profile.ID)})
}

func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	course, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"course": course.ViewFor(profile.ID)})
}

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	students, err := h.service.ListStudents(r.Context(), id)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"students": students})
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	var req JoinRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	course, err := h.service.JoinByInvite(r.Context(), profile.ID, req.InviteCode)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "student joined course", "course_id", course.ID, "student_id", profile.ID)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "joined course",
		"course":  course.ViewFor(profile.ID),
	})
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	var req EnrollRequest
	if err := httputil.DecodeOptionalAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	course, err := h.service.Enroll(r.Context(), profile.ID, id, req.Password)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "student enrolled", "course_id", course.ID, "student_id", profile.ID)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "enrolled",
		"course":  course.ViewFor(profile.ID),
	})
}
