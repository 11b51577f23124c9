package submission

import (
	"context"
	"testing"

	"labconnect/internal/apperr"
	"labconnect/internal/events"
	"labconnect/internal/lab"
	"labconnect/internal/logger"
	"labconnect/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(opts Options) (Service, *events.Recorder) {
	rec := &events.Recorder{}
	return NewService(&fakeRepository{}, fakeLabs{}, fakeCourses{}, opts, metrics.NewMock(), rec, logger.Discard()), rec
}

func intPtr(i int) *int { return &i }

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Pending", func(t *testing.T) {
		svc, rec := newTestService(Options{})
		s, err := svc.Submit(ctx, studentID, SubmitRequest{LabID: labID, Code: "print(1)"})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, s.Status)
		assert.Nil(t, s.Score)
		assert.Equal(t, []string{events.SubmissionCreated}, rec.Types())
	})

	t.Run("FilesOnly", func(t *testing.T) {
		svc, _ := newTestService(Options{})
		s, err := svc.Submit(ctx, studentID, SubmitRequest{LabID: labID, Files: []string{" main.go ", ""}})
		require.NoError(t, err)
		assert.Equal(t, []string{"main.go"}, s.Files)
	})

	t.Run("NothingSubmitted", func(t *testing.T) {
		svc, _ := newTestService(Options{})
		_, err := svc.Submit(ctx, studentID, SubmitRequest{LabID: labID, Files: []string{" "}, Comment: "empty"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("UnknownLab", func(t *testing.T) {
		svc, _ := newTestService(Options{})
		_, err := svc.Submit(ctx, studentID, SubmitRequest{LabID: 999, Code: "x"})
		assert.ErrorIs(t, err, lab.ErrLabNotFound)
	})

	t.Run("NotEnrolled", func(t *testing.T) {
		svc, _ := newTestService(Options{})
		_, err := svc.Submit(ctx, otherStudentID, SubmitRequest{LabID: labID, Code: "x"})
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})

	t.Run("AttemptsNotEnforcedByDefault", func(t *testing.T) {
		svc, _ := newTestService(Options{})
		for i := 0; i < 3; i++ {
			_, err := svc.Submit(ctx, studentID, SubmitRequest{LabID: labID, Code: "x"})
			require.NoError(t, err)
		}
	})

	t.Run("AttemptsEnforced", func(t *testing.T) {
		svc, _ := newTestService(Options{EnforceAttempts: true})
		for i := 0; i < 2; i++ {
			_, err := svc.Submit(ctx, studentID, SubmitRequest{LabID: labID, Code: "x"})
			require.NoError(t, err)
		}
		_, err := svc.Submit(ctx, studentID, SubmitRequest{LabID: labID, Code: "x"})
		assert.ErrorIs(t, err, ErrAttemptsExhausted)
	})
}

func TestService_Review(t *testing.T) {
	ctx := context.Background()

	submit := func(t *testing.T, svc Service) *Submission {
		t.Helper()
		s, err := svc.Submit(ctx, studentID, SubmitRequest{LabID: labID, Code: "x"})
		require.NoError(t, err)
		return s
	}

	t.Run("Grade", func(t *testing.T) {
		svc, rec := newTestService(Options{})
		s := submit(t, svc)

		graded, err := svc.Grade(ctx, teacherID, s.ID, GradeRequest{Score: intPtr(8), TeacherComment: "good"})
		require.NoError(t, err)
		assert.Equal(t, StatusChecked, graded.Status)
		assert.Equal(t, 8, *graded.Score)
		assert.NotNil(t, graded.CheckedAt)
		assert.Equal(t, "good", graded.TeacherComment)
		assert.Equal(t, []string{events.SubmissionCreated, events.SubmissionChecked}, rec.Types())

		_, err = svc.Grade(ctx, teacherID, s.ID, GradeRequest{Score: intPtr(9)})
		assert.ErrorIs(t, err, ErrNotPending)

		_, err = svc.RequestRevision(ctx, teacherID, s.ID, "again")
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("GradeValidation", func(t *testing.T) {
		svc, _ := newTestService(Options{})
		s := submit(t, svc)

		_, err := svc.Grade(ctx, teacherID, s.ID, GradeRequest{})
		assert.ErrorIs(t, err, ErrScoreRequired)

		_, err = svc.Grade(ctx, teacherID, s.ID, GradeRequest{Score: intPtr(11)})
		assert.ErrorIs(t, err, apperr.ErrValidation)

		_, err = svc.Grade(ctx, teacherID, s.ID, GradeRequest{Score: intPtr(-1)})
		assert.ErrorIs(t, err, apperr.ErrValidation)

		graded, err := svc.Grade(ctx, teacherID, s.ID, GradeRequest{Score: intPtr(0)})
		require.NoError(t, err)
		assert.Equal(t, 0, *graded.Score)
	})

	t.Run("ForeignTeacher", func(t *testing.T) {
		svc, _ := newTestService(Options{})
		s := submit(t, svc)

		_, err := svc.Grade(ctx, 99, s.ID, GradeRequest{Score: intPtr(5)})
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		_, err = svc.ListByLab(ctx, 99, labID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("Revision", func(t *testing.T) {
		svc, rec := newTestService(Options{})
		s := submit(t, svc)

		_, err := svc.RequestRevision(ctx, teacherID, s.ID, "  ")
		assert.ErrorIs(t, err, apperr.ErrValidation)

		revised, err := svc.RequestRevision(ctx, teacherID, s.ID, "fix the tests")
		require.NoError(t, err)
		assert.Equal(t, StatusRevision, revised.Status)
		assert.Equal(t, "fix the tests", revised.TeacherComment)
		assert.Nil(t, revised.Score)
		assert.Contains(t, rec.Types(), events.SubmissionRevision)
	})

	t.Run("UnknownSubmission", func(t *testing.T) {
		svc, _ := newTestService(Options{})
		_, err := svc.Grade(ctx, teacherID, 404, GradeRequest{Score: intPtr(1)})
		assert.ErrorIs(t, err, ErrSubmissionNotFound)
	})
}

func TestService_Lists(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(Options{})

	_, err := svc.Submit(ctx, studentID, SubmitRequest{LabID: labID, Code: "a"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, studentID, SubmitRequest{LabID: labID, Code: "b"})
	require.NoError(t, err)

	byLab, err := svc.ListByLab(ctx, teacherID, labID)
	require.NoError(t, err)
	assert.Len(t, byLab, 2)

	mine, err := svc.ListForStudent(ctx, studentID, intPtr(labID))
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := svc.ListForStudent(ctx, studentID, intPtr(labID+1))
	require.NoError(t, err)
	assert.Empty(t, none)
}
