package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutay/teacherportal/internal/app/models/dto"
	"github.com/kutay/teacherportal/internal/pkg/apperrors"
)

func importFixture(t *testing.T) (ImportService, *fakeStudentRepository, StudentService) {
	t.Helper()
	repo := newFakeStudentRepository()
	studentService := NewStudentService(repo)
	return NewImportService(studentService), repo, studentService
}

func TestImportCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("imports valid rows", func(t *testing.T) {
		svc, repo, _ := importFixture(t)

		csv := "name,subject,marks\n" +
			"Alice,Math,80\n" +
			"Bob,Physics,65\n"

		report, err := svc.ImportCSV(ctx, 1, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 2, report.Processed)
		assert.Equal(t, 2, report.Created)
		assert.Equal(t, 0, report.Updated)
		assert.Empty(t, report.Skipped)
		assert.NotEmpty(t, report.BatchID)
		assert.Len(t, repo.students, 2)
	})

	t.Run("accumulates marks for repeated natural keys", func(t *testing.T) {
		svc, repo, studentService := importFixture(t)

		_, _, err := studentService.AddStudent(ctx, 1, &dto.SaveStudentRequest{Name: "Alice", Subject: "Math", Marks: "80"})
		require.NoError(t, err)

		csv := "name,subject,marks\n" +
			"Alice,Math,15\n" +
			"Alice,Math,5\n"

		report, err := svc.ImportCSV(ctx, 1, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 2, report.Processed)
		assert.Equal(t, 0, report.Created)
		assert.Equal(t, 2, report.Updated)

		stored, err := repo.GetByNaturalKey(ctx, 1, "Alice", "Math")
		require.NoError(t, err)
		assert.Equal(t, 100, stored.Marks)
	})

	t.Run("skips bad rows and keeps going", func(t *testing.T) {
		svc, repo, _ := importFixture(t)

		csv := "name,subject,marks\n" +
			"Alice,Math,80\n" +
			"Bob,Physics,abc\n" +
			",Chemistry,50\n" +
			"Dan,Biology,70.5\n" +
			"Eve,History,90\n"

		report, err := svc.ImportCSV(ctx, 1, strings.NewReader(csv))
		require.NoError(t, err)
		// Skipped rows do not count as processed
		assert.Equal(t, 2, report.Processed)
		assert.Equal(t, 2, report.Created)
		require.Len(t, report.Skipped, 3)

		// Line numbers are 1-based and include the header line
		assert.Equal(t, 3, report.Skipped[0].Line)
		assert.Contains(t, report.Skipped[0].Reason, "invalid marks")
		assert.Equal(t, 4, report.Skipped[1].Line)
		assert.Contains(t, report.Skipped[1].Reason, "missing")
		assert.Equal(t, 5, report.Skipped[2].Line)

		assert.Len(t, repo.students, 2)
	})

	t.Run("skips rows with too few columns", func(t *testing.T) {
		svc, _, _ := importFixture(t)

		csv := "name,subject,marks\n" +
			"Alice,Math\n" +
			"Bob,Physics,65\n"

		report, err := svc.ImportCSV(ctx, 1, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, report.Processed)
		assert.Equal(t, 1, report.Created)
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, 2, report.Skipped[0].Line)
	})

	t.Run("header columns match case-insensitively in any order", func(t *testing.T) {
		svc, repo, _ := importFixture(t)

		csv := "Marks,NAME,Subject\n" +
			"80,Alice,Math\n"

		report, err := svc.ImportCSV(ctx, 1, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, report.Created)

		stored, err := repo.GetByNaturalKey(ctx, 1, "Alice", "Math")
		require.NoError(t, err)
		assert.Equal(t, 80, stored.Marks)
	})

	t.Run("missing header column fails the whole import", func(t *testing.T) {
		svc, repo, _ := importFixture(t)

		csv := "name,subject\n" +
			"Alice,Math\n"

		_, err := svc.ImportCSV(ctx, 1, strings.NewReader(csv))
		assert.ErrorIs(t, err, apperrors.ErrMissingHeader)
		assert.Empty(t, repo.students)
	})

	t.Run("empty input is unreadable", func(t *testing.T) {
		svc, _, _ := importFixture(t)

		_, err := svc.ImportCSV(ctx, 1, strings.NewReader(""))
		assert.ErrorIs(t, err, apperrors.ErrUnreadableImport)
	})

	t.Run("values are trimmed", func(t *testing.T) {
		svc, repo, _ := importFixture(t)

		csv := "name,subject,marks\n" +
			" Alice , Math , 80 \n"

		report, err := svc.ImportCSV(ctx, 1, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, report.Created)

		stored, err := repo.GetByNaturalKey(ctx, 1, "Alice", "Math")
		require.NoError(t, err)
		assert.Equal(t, 80, stored.Marks)
	})
}
