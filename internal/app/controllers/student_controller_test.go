package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutay/teacherportal/internal/app/models"
	"github.com/kutay/teacherportal/internal/app/models/dto"
	"github.com/kutay/teacherportal/internal/pkg/apperrors"
)

// fakeStudentService scripts service results for controller tests.
type fakeStudentService struct {
	student *models.Student
	created bool
	listing *dto.StudentListResponse
	deleted int64
	err     error
}

func (f *fakeStudentService) Reconcile(context.Context, int64, string, string, int, models.MergePolicy) (*models.Student, bool, error) {
	return f.student, f.created, f.err
}

func (f *fakeStudentService) AddStudent(context.Context, int64, *dto.SaveStudentRequest) (*models.Student, bool, error) {
	return f.student, f.created, f.err
}

func (f *fakeStudentService) EditStudent(context.Context, int64, int64, *dto.SaveStudentRequest) (*models.Student, error) {
	return f.student, f.err
}

func (f *fakeStudentService) DeleteStudent(context.Context, int64, int64) error {
	return f.err
}

func (f *fakeStudentService) BulkDelete(context.Context, int64, []int64) (int64, error) {
	return f.deleted, f.err
}

func (f *fakeStudentService) List(context.Context, int64, string, string, int) (*dto.StudentListResponse, error) {
	return f.listing, f.err
}

func (f *fakeStudentService) Dashboard(context.Context, int64) (*dto.DashboardResponse, error) {
	return &dto.DashboardResponse{Summary: []models.SubjectSummary{}}, f.err
}

// newStudentRouter builds a router with the auth context pre-populated, the
// way the JWT middleware would after validating a token.
func newStudentRouter(svc *fakeStudentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewStudentController(svc, zerolog.Nop())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", int64(1))
		c.Set("email", "teacher@school.edu")
	})

	router.GET("/students", controller.List)
	router.POST("/students", controller.Add)
	router.PUT("/students/:id", controller.Edit)
	router.DELETE("/students/:id", controller.Delete)
	router.POST("/students/bulk-delete", controller.BulkDelete)
	router.GET("/students/dashboard", controller.Dashboard)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var response dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Error)
	return response.Error.Message
}

func TestStudentControllerAdd(t *testing.T) {
	t.Run("created record returns 201", func(t *testing.T) {
		svc := &fakeStudentService{
			student: &models.Student{ID: 1, Name: "Alice", Subject: "Math", Marks: 80},
			created: true,
		}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodPost, "/students", dto.SaveStudentRequest{Name: "Alice", Subject: "Math", Marks: "80"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("merged record returns 200", func(t *testing.T) {
		svc := &fakeStudentService{
			student: &models.Student{ID: 1, Name: "Alice", Subject: "Math", Marks: 55},
			created: false,
		}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodPost, "/students", dto.SaveStudentRequest{Name: "Alice", Subject: "Math", Marks: "55"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid marks yields the fixed message", func(t *testing.T) {
		svc := &fakeStudentService{err: apperrors.ErrInvalidMarks}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodPost, "/students", dto.SaveStudentRequest{Name: "Alice", Subject: "Math", Marks: "abc"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Marks must be a valid number.", errorMessage(t, w))
	})

	t.Run("missing fields yields the fixed message", func(t *testing.T) {
		svc := &fakeStudentService{err: apperrors.ErrMissingFields}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodPost, "/students", dto.SaveStudentRequest{Name: "Alice"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "All fields are required.", errorMessage(t, w))
	})
}

func TestStudentControllerEdit(t *testing.T) {
	t.Run("unknown record returns 404 with the fixed message", func(t *testing.T) {
		svc := &fakeStudentService{err: apperrors.ErrStudentNotFound}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodPut, "/students/42", dto.SaveStudentRequest{Name: "Alice", Subject: "Math", Marks: "80"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Student not found.", errorMessage(t, w))
	})

	t.Run("name and subject collision returns 409", func(t *testing.T) {
		svc := &fakeStudentService{err: apperrors.ErrResourceAlreadyExists}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodPut, "/students/42", dto.SaveStudentRequest{Name: "Alice", Subject: "Math", Marks: "80"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "A student with this name and subject already exists.", errorMessage(t, w))
	})

	t.Run("non-numeric id returns 404", func(t *testing.T) {
		router := newStudentRouter(&fakeStudentService{})

		w := doJSON(t, router, http.MethodPut, "/students/abc", dto.SaveStudentRequest{Name: "Alice", Subject: "Math", Marks: "80"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStudentControllerDelete(t *testing.T) {
	t.Run("successful delete returns 200", func(t *testing.T) {
		router := newStudentRouter(&fakeStudentService{})

		w := doJSON(t, router, http.MethodDelete, "/students/1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown record returns 404", func(t *testing.T) {
		svc := &fakeStudentService{err: apperrors.ErrStudentNotFound}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodDelete, "/students/42", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Student not found.", errorMessage(t, w))
	})
}

func TestStudentControllerBulkDelete(t *testing.T) {
	t.Run("reports the deleted count", func(t *testing.T) {
		svc := &fakeStudentService{deleted: 3}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodPost, "/students/bulk-delete", dto.BulkDeleteRequest{IDs: []int64{1, 2, 3}})
		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data, err := json.Marshal(response.Data)
		require.NoError(t, err)
		var result dto.BulkDeleteResponse
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, int64(3), result.DeletedCount)
	})

	t.Run("empty id list returns 400 with the fixed message", func(t *testing.T) {
		svc := &fakeStudentService{err: apperrors.ErrNoIDsProvided}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodPost, "/students/bulk-delete", dto.BulkDeleteRequest{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No student IDs provided.", errorMessage(t, w))
	})

	t.Run("undecodable body gets a generic failure, not the empty-ids message", func(t *testing.T) {
		router := newStudentRouter(&fakeStudentService{})

		req := httptest.NewRequest(http.MethodPost, "/students/bulk-delete", bytes.NewReader([]byte(`{"ids": "oops"}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request format", errorMessage(t, w))
	})

	t.Run("no matches returns 404 with the fixed message", func(t *testing.T) {
		svc := &fakeStudentService{err: apperrors.ErrNothingDeleted}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodPost, "/students/bulk-delete", dto.BulkDeleteRequest{IDs: []int64{7}})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "No matching students found or deleted.", errorMessage(t, w))
	})
}

func TestStudentControllerList(t *testing.T) {
	t.Run("returns the listing with pagination", func(t *testing.T) {
		svc := &fakeStudentService{
			listing: &dto.StudentListResponse{
				Students:    []dto.StudentResponse{{ID: 1, Name: "Alice", Subject: "Math", Marks: 80}},
				AllSubjects: []string{"Math"},
				Pagination:  dto.PaginationInfo{CurrentPage: 1, TotalPages: 1, PageSize: 10, TotalItems: 1},
			},
		}
		router := newStudentRouter(svc)

		w := doJSON(t, router, http.MethodGet, "/students?search=ali&subject=Math&page=1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.NotNil(t, response.Pagination)
		assert.Equal(t, 10, response.Pagination.PageSize)
	})
}

func TestStudentControllerAuth(t *testing.T) {
	// No userID in context: every student route must refuse
	gin.SetMode(gin.TestMode)
	controller := NewStudentController(&fakeStudentService{}, zerolog.Nop())
	router := gin.New()
	router.GET("/students", controller.List)

	w := doJSON(t, router, http.MethodGet, "/students", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
