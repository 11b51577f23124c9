package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"labconnect/internal/app"
	"labconnect/internal/events"
	"labconnect/internal/logger"
	"labconnect/internal/metrics"
	"labconnect/internal/session"
	"labconnect/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == session.CookieName {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) decode(w *httptest.ResponseRecorder, dst interface{}) {
	c.t.Helper()
	require.NoError(c.t, json.NewDecoder(w.Body).Decode(dst), w.Body.String())
}

func (c *client) registerAndLogin(username, password, role string) {
	c.t.Helper()
	w := c.do(http.MethodPost, "/register-simple", map[string]string{
		"username":  username,
		"password":  password,
		"email":     username + "@example.com",
		"firstName": username,
		"lastName":  "Test",
		"role":      role,
	})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/login", map[string]string{"username": username, "password": password})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
}

func TestLabConnectScenario(t *testing.T) {
	pg := testdb.Start(t)
	require.NoError(t, app.Migrate(context.Background(), pg.DB))

	recorder := &events.Recorder{}
	router := app.NewRouter(app.Deps{
		DB:        pg.DB,
		Sessions:  session.NewManager(session.NewMemoryStore(), "test-secret", time.Hour, false),
		Publisher: recorder,
		Metrics:   metrics.NewMock(),
		Logger:    logger.Discard(),
	})

	pg.Truncate(t, "submissions", "labs", "course_students", "courses", "users")

	teacher := &client{t: t, router: router}
	student := &client{t: t, router: router}

	teacher.registerAndLogin("teacher", "teacher12345", "teacher")
	student.registerAndLogin("student", "student12345", "student")

	var created struct {
		Course struct {
			ID         int    `json:"id"`
			InviteCode string `json:"invite_code"`
		} `json:"course"`
	}

	t.Run("TeacherCreatesCourse", func(t *testing.T) {
		w := teacher.do(http.MethodPost, "/courses", map[string]string{"name": "Web Tech", "discipline": "Informatics"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		teacher.decode(w, &created)
		assert.Len(t, created.Course.InviteCode, 10)
	})

	t.Run("StudentJoinsByInvite", func(t *testing.T) {
		w := student.do(http.MethodPost, "/courses/join", map[string]string{"invite_code": created.Course.InviteCode})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = student.do(http.MethodPost, "/courses/join", map[string]string{"invite_code": created.Course.InviteCode})
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp struct {
			Courses []struct {
				Name string `json:"name"`
			} `json:"courses"`
		}
		w = student.do(http.MethodGet, "/student/courses", nil)
		require.Equal(t, http.StatusOK, w.Code)
		student.decode(w, &resp)
		require.Len(t, resp.Courses, 1)
		assert.Equal(t, "Web Tech", resp.Courses[0].Name)
	})

	var labID int
	t.Run("TeacherCreatesLab", func(t *testing.T) {
		now := time.Now().UTC()
		w := teacher.do(http.MethodPost, "/labs", map[string]interface{}{
			"title":      "HTML basics",
			"course_id":  created.Course.ID,
			"start_date": now.Add(-time.Hour).Format(time.RFC3339),
			"deadline":   now.Add(24 * time.Hour).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Lab struct {
				ID     int    `json:"id"`
				Status string `json:"status"`
			} `json:"lab"`
		}
		teacher.decode(w, &resp)
		labID = resp.Lab.ID
		assert.Equal(t, "active", resp.Lab.Status)
	})

	var submissionID int
	t.Run("StudentSubmits", func(t *testing.T) {
		w := student.do(http.MethodPost, "/submissions", map[string]interface{}{
			"lab_id": labID,
			"files":  []string{"index.html"},
			"code":   "<h1>hi</h1>",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Submission struct {
				ID     int      `json:"id"`
				Status string   `json:"status"`
				Files  []string `json:"files"`
			} `json:"submission"`
		}
		student.decode(w, &resp)
		submissionID = resp.Submission.ID
		assert.Equal(t, "pending", resp.Submission.Status)
		assert.Equal(t, []string{"index.html"}, resp.Submission.Files)
	})

	t.Run("TeacherGrades", func(t *testing.T) {
		w := teacher.do(http.MethodGet, "/labs/"+strconv.Itoa(labID)+"/submissions", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"student_username":"student"`)

		w = teacher.do(http.MethodPut, "/submissions/"+strconv.Itoa(submissionID)+"/grade", map[string]interface{}{"score": 9, "teacher_comment": "nice"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"status":"checked"`)

		w = teacher.do(http.MethodPut, "/submissions/"+strconv.Itoa(submissionID)+"/revision", map[string]string{"teacher_comment": "again"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("TeacherDeletesAccount", func(t *testing.T) {
		w := teacher.do(http.MethodDelete, "/profile", map[string]string{"password": "teacher12345", "confirmation": "DELETE"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		ctx := context.Background()
		for _, table := range []string{"courses", "course_students", "labs", "submissions"} {
			count, err := pg.DB.NewSelect().TableExpr(table).Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count, table)
		}

		var resp struct {
			Courses []interface{} `json:"courses"`
		}
		w = student.do(http.MethodGet, "/student/courses", nil)
		require.Equal(t, http.StatusOK, w.Code)
		student.decode(w, &resp)
		assert.Empty(t, resp.Courses)

		w = teacher.do(http.MethodGet, "/user", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.Contains(t, recorder.Types(), events.CourseEnrolled)
	assert.Contains(t, recorder.Types(), events.UserDeleted)
}
