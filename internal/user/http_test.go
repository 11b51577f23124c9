package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"labconnect/internal/logger"
	"labconnect/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router http.Handler
	store  *session.MemoryStore
}

func newTestServer() *testServer {
	svc, _, _ := newTestService()
	store := session.NewMemoryStore()
	manager := session.NewManager(store, "test-secret", time.Hour, false)

	router := chi.NewRouter()
	NewHandler(svc, manager, logger.Discard()).RegisterRoutes(router)
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

var registerPayload = map[string]interface{}{
	"username":  "student",
	"password":  "student12345",
	"email":     "student@example.com",
	"firstName": "Sam",
	"lastName":  "Student",
	"role":      "student",
	"group":     "IT-21",
}

func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := s.do(t, http.MethodPost, "/register-simple", registerPayload, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/login", map[string]string{"username": "student", "password": "student12345"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := findCookie(w)
	require.NotNil(t, cookie)
	return cookie
}

func TestHandler_Register(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer()
		w := s.do(t, http.MethodPost, "/register-simple", registerPayload, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.EqualValues(t, 1, resp["userId"])
	})

	t.Run("Duplicate", func(t *testing.T) {
		s := newTestServer()
		s.do(t, http.MethodPost, "/register-simple", registerPayload, nil)
		w := s.do(t, http.MethodPost, "/register-simple", registerPayload, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "username already exists")
	})

	t.Run("ValidationError", func(t *testing.T) {
		s := newTestServer()
		w := s.do(t, http.MethodPost, "/register-simple", map[string]interface{}{
			"username": "x",
			"email":    "invalid",
			"role":     "admin",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Contains(t, resp.Fields, "email")
		assert.Contains(t, resp.Fields, "role")
		assert.Contains(t, resp.Fields, "password")
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		s := newTestServer()
		req := httptest.NewRequest(http.MethodPost, "/register-simple", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_LoginAndSession(t *testing.T) {
	s := newTestServer()
	cookie := s.login(t)

	t.Run("WrongPassword", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/login", map[string]string{"username": "student", "password": "nope-nope-nope"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, findCookie(w))
	})

	t.Run("CurrentUser", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/user", nil, cookie)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			User map[string]interface{} `json:"user"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "student", resp.User["username"])
		assert.Equal(t, "IT-21", resp.User["group"])
		assert.NotContains(t, resp.User, "password")
	})

	t.Run("Anonymous", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/user", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("UpdateProfileRefreshesSession", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/profile", map[string]string{"faculty": "Informatics"}, cookie)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.do(t, http.MethodGet, "/user", nil, cookie)
		assert.Contains(t, w.Body.String(), "Informatics")
	})

	t.Run("ChangeUsernameWrongPassword", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/change-username", map[string]string{"newUsername": "renamed", "password": "bad-password"}, cookie)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ChangePassword", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/change-password", map[string]string{
			"currentPassword": "student12345",
			"newPassword":     "student67890",
			"confirmPassword": "student67890",
		}, cookie)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.do(t, http.MethodPost, "/login", map[string]string{"username": "student", "password": "student67890"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Logout", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/logout", nil, cookie)
		require.Equal(t, http.StatusOK, w.Code)

		w = s.do(t, http.MethodGet, "/user", nil, cookie)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandler_DeleteAccount(t *testing.T) {
	s := newTestServer()
	cookie := s.login(t)

	w := s.do(t, http.MethodDelete, "/profile", map[string]string{"password": "student12345", "confirmation": "nope"}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/profile", map[string]string{"password": "student12345", "confirmation": "DELETE"}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, s.store.Len())

	w = s.do(t, http.MethodPost, "/login", map[string]string{"username": "student", "password": "student12345"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_DeleteAccountSignsOutOtherDevices(t *testing.T) {
	s := newTestServer()
	laptop := s.login(t)

	w := s.do(t, http.MethodPost, "/login", map[string]string{"username": "student", "password": "student12345"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	phone := findCookie(w)
	require.NotNil(t, phone)

	w = s.do(t, http.MethodDelete, "/profile", map[string]string{"password": "student12345", "confirmation": "DELETE"}, laptop)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/user", nil, phone)
	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}
