package user

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
	router.Post("/register-simple", h.Register)
	router.Post("/login", h.Login)

	router.Group(func(r chi.Router) {
		r.Use(session.RequireSession(h.sessions, h.logger))
		r.Post("/logout", h.Logout)
		r.Get("/user", h.CurrentUser)
		r.Put("/profile", h.UpdateProfile)
		r.Delete("/profile", h.DeleteAccount)
		r.Put("/change-username", h.ChangeUsername)
		r.Put("/change-password", h.ChangePassword)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID, "role", user.Role)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "registration successful",
		"userId":  user.ID,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	profile := user.ToProfile()
	if err := h.sessions.Create(r.Context(), w, profile); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user logged in", "user_id", user.ID)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"user": profile})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"user": profile})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	var req UpdateProfileRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), profile.ID, req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.refreshSession(w, r, user)
}

func (h *Handler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	var req ChangeUsernameRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.service.ChangeUsername(r.Context(), profile.ID, req.NewUsername, req.Password)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.refreshSession(w, r, user)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	var req ChangePasswordRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), profile.ID, req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "password changed", "user_id", profile.ID)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	profile, _ := session.FromContext(r.Context())

	var req DeleteAccountRequest
	if err := httputil.DecodeAndValidate(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), profile.ID, req.Password, req.Confirmation); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	if err := h.sessions.DestroyUser(r.Context(), w, profile.ID); err != nil {
		h.logger.WarnContext(r.Context(), "failed to destroy sessions after account deletion", "error", err, "user_id", profile.ID)
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// refreshSession stores the updated profile in the session and returns it.
func (h *Handler) refreshSession(w http.ResponseWriter, r *http.Request, user *User) {
	profile := user.ToProfile()
	if err := h.sessions.Update(r.Context(), r, profile); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"user": profile})
}
