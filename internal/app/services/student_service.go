package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kutay/teacherportal/internal/app/models"
	"github.com/kutay/teacherportal/internal/app/models/dto"
	"github.com/kutay/teacherportal/internal/app/repositories"
	"github.com/kutay/teacherportal/internal/pkg/apperrors"
	"github.com/kutay/teacherportal/internal/pkg/helpers"
)

// PageSize is the fixed page size of the listing view.
const PageSize = 10

// StudentService defines the interface for student record operations
type StudentService interface {
	// Reconcile decides whether a candidate (owner, name, subject, marks)
	// tuple creates a new record or merges into an existing one. The
	// returned bool reports whether a record was created.
	Reconcile(ctx context.Context, userID int64, name, subject string, marks int, policy models.MergePolicy) (*models.Student, bool, error)

	AddStudent(ctx context.Context, userID int64, req *dto.SaveStudentRequest) (*models.Student, bool, error)
	EditStudent(ctx context.Context, userID, id int64, req *dto.SaveStudentRequest) (*models.Student, error)
	DeleteStudent(ctx context.Context, userID, id int64) error
	BulkDelete(ctx context.Context, userID int64, ids []int64) (int64, error)
	List(ctx context.Context, userID int64, search, subject string, page int) (*dto.StudentListResponse, error)
	Dashboard(ctx context.Context, userID int64) (*dto.DashboardResponse, error)
}

// studentServiceImpl implements the StudentService interface
type studentServiceImpl struct {
	studentRepo repositories.IStudentRepository
}

// NewStudentService creates a new student service instance
func NewStudentService(studentRepo repositories.IStudentRepository) StudentService {
	return &studentServiceImpl{
		studentRepo: studentRepo,
	}
}

// ParseMarks converts the textual marks value to an integer. Anything that
// is not a plain base-10 integer, including fractional values, fails with
// apperrors.ErrInvalidMarks.
func ParseMarks(marksText string) (int, error) {
	marks, err := strconv.Atoi(strings.TrimSpace(marksText))
	if err != nil {
		return 0, apperrors.ErrInvalidMarks
	}
	return marks, nil
}

// Reconcile looks up the natural key (owner, name, subject) and either
// inserts a new record or merges marks into the existing one. OVERWRITE
// replaces the stored marks, ACCUMULATE adds to them. Exactly one store
// write happens per call.
func (s *studentServiceImpl) Reconcile(ctx context.Context, userID int64, name, subject string, marks int, policy models.MergePolicy) (*models.Student, bool, error) {
	existing, err := s.studentRepo.GetByNaturalKey(ctx, userID, name, subject)
	if err != nil {
		if !errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, false, fmt.Errorf("error looking up student: %w", err)
		}

		student := &models.Student{
			UserID:  userID,
			Name:    name,
			Subject: subject,
			Marks:   marks,
		}
		err = s.studentRepo.Create(ctx, student)
		if err == nil {
			return student, true, nil
		}
		if !errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			return nil, false, fmt.Errorf("error creating student: %w", err)
		}

		// Lost a concurrent insert race on the unique natural key.
		// Re-read and fall through to the merge path.
		existing, err = s.studentRepo.GetByNaturalKey(ctx, userID, name, subject)
		if err != nil {
			return nil, false, fmt.Errorf("error re-reading student after conflict: %w", err)
		}
	}

	newMarks := marks
	if policy == models.MergeAccumulate {
		newMarks = existing.Marks + marks
	}

	if err := s.studentRepo.UpdateMarks(ctx, existing.ID, newMarks); err != nil {
		return nil, false, fmt.Errorf("error merging marks: %w", err)
	}

	existing.Marks = newMarks
	return existing, false, nil
}

// AddStudent handles a manual add submission. A natural-key match has its
// marks overwritten with the submitted value.
func (s *studentServiceImpl) AddStudent(ctx context.Context, userID int64, req *dto.SaveStudentRequest) (*models.Student, bool, error) {
	name := strings.TrimSpace(req.Name)
	subject := strings.TrimSpace(req.Subject)
	if name == "" || subject == "" || strings.TrimSpace(req.Marks) == "" {
		return nil, false, apperrors.ErrMissingFields
	}

	marks, err := ParseMarks(req.Marks)
	if err != nil {
		return nil, false, err
	}

	return s.Reconcile(ctx, userID, name, subject, marks, models.MergeOverwrite)
}

// EditStudent rewrites an owned record identified by ID
func (s *studentServiceImpl) EditStudent(ctx context.Context, userID, id int64, req *dto.SaveStudentRequest) (*models.Student, error) {
	name := strings.TrimSpace(req.Name)
	subject := strings.TrimSpace(req.Subject)
	if name == "" || subject == "" || strings.TrimSpace(req.Marks) == "" {
		return nil, apperrors.ErrMissingFields
	}

	marks, err := ParseMarks(req.Marks)
	if err != nil {
		return nil, err
	}

	student, err := s.studentRepo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}

	student.Name = name
	student.Subject = subject
	student.Marks = marks

	if err := s.studentRepo.Update(ctx, student); err != nil {
		return nil, err
	}

	return student, nil
}

// DeleteStudent removes an owned record by ID
func (s *studentServiceImpl) DeleteStudent(ctx context.Context, userID, id int64) error {
	if id <= 0 {
		return apperrors.ErrStudentNotFound
	}
	return s.studentRepo.Delete(ctx, userID, id)
}

// BulkDelete removes the given records in one batch, scoped to the owner
func (s *studentServiceImpl) BulkDelete(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.ErrNoIDsProvided
	}

	deleted, err := s.studentRepo.DeleteByIDs(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("error bulk deleting students: %w", err)
	}

	if deleted == 0 {
		return 0, apperrors.ErrNothingDeleted
	}

	return deleted, nil
}

// List applies the search and subject filters to the owner's records and
// returns one page of results plus the distinct subjects of the full owned
// set. An out-of-range page clamps to the nearest valid page.
func (s *studentServiceImpl) List(ctx context.Context, userID int64, search, subject string, page int) (*dto.StudentListResponse, error) {
	filter := repositories.ListFilter{
		Search:  search,
		Subject: subject,
	}

	total, err := s.studentRepo.Count(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("error counting students: %w", err)
	}

	page = helpers.ClampPage(page, helpers.TotalPages(total, PageSize))
	filter.Offset, filter.Limit = helpers.CalculateOffsetLimit(page, PageSize)

	students, err := s.studentRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}

	subjects, err := s.studentRepo.DistinctSubjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving subjects: %w", err)
	}
	if subjects == nil {
		subjects = []string{}
	}

	return &dto.StudentListResponse{
		Students:    dto.FromStudents(students),
		AllSubjects: subjects,
		Pagination:  helpers.NewPaginationInfo(total, page, PageSize),
	}, nil
}

// Dashboard returns per-subject aggregates over the owner's records
func (s *studentServiceImpl) Dashboard(ctx context.Context, userID int64) (*dto.DashboardResponse, error) {
	summaries, err := s.studentRepo.SubjectSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error computing dashboard: %w", err)
	}
	if summaries == nil {
		summaries = []models.SubjectSummary{}
	}

	return &dto.DashboardResponse{Summary: summaries}, nil
}
