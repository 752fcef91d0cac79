package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kutay/teacherportal/internal/app/models"
	"github.com/kutay/teacherportal/internal/pkg/apperrors"
	"github.com/kutay/teacherportal/internal/pkg/dberrors"
)

// studentColumns is the scan list shared by the single-row and list queries.
const studentColumns = "id, user_id, name, subject, marks, created_at, updated_at"

// ListFilter narrows a listing query. Search matches name OR subject as a
// case-insensitive substring; Subject is exact, case-sensitive equality.
type ListFilter struct {
	Search  string
	Subject string
	Offset  uint64
	Limit   int
}

// IStudentRepository defines the interface for student record database operations
type IStudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, userID, id int64) (*models.Student, error)
	GetByNaturalKey(ctx context.Context, userID int64, name, subject string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	UpdateMarks(ctx context.Context, id int64, marks int) error
	Delete(ctx context.Context, userID, id int64) error
	DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error)
	List(ctx context.Context, userID int64, filter ListFilter) ([]*models.Student, error)
	Count(ctx context.Context, userID int64, filter ListFilter) (int64, error)
	DistinctSubjects(ctx context.Context, userID int64) ([]string, error)
	SubjectSummaries(ctx context.Context, userID int64) ([]models.SubjectSummary, error)
}

// StudentRepository handles student record database operations
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new student record. A natural-key collision surfaces as
// apperrors.ErrResourceAlreadyExists so the caller can re-read and merge.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (user_id, name, subject, marks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		student.UserID, student.Name, student.Subject, student.Marks,
	).Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "students_user_id_name_subject_key") {
			return apperrors.ErrResourceAlreadyExists
		}
		return fmt.Errorf("error creating student: %w", err)
	}

	return nil
}

// GetByID retrieves a record by ID, scoped to its owner
func (r *StudentRepository) GetByID(ctx context.Context, userID, id int64) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1 AND user_id = $2`, studentColumns)

	student, err := r.scanOne(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, err
	}

	return student, nil
}

// GetByNaturalKey retrieves a record by its (owner, name, subject) tuple
func (r *StudentRepository) GetByNaturalKey(ctx context.Context, userID int64, name, subject string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE user_id = $1 AND name = $2 AND subject = $3`, studentColumns)

	student, err := r.scanOne(r.db.QueryRow(ctx, query, userID, name, subject))
	if err != nil {
		return nil, err
	}

	return student, nil
}

// Update rewrites name, subject and marks of an owned record
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	query := `
		UPDATE students
		SET name = $1, subject = $2, marks = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
	`

	cmdTag, err := r.db.Exec(ctx, query,
		student.Name, student.Subject, student.Marks, student.ID, student.UserID)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "students_user_id_name_subject_key") {
			return apperrors.ErrResourceAlreadyExists
		}
		return fmt.Errorf("error updating student: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}

	return nil
}

// UpdateMarks replaces the marks of a record and refreshes updated_at
func (r *StudentRepository) UpdateMarks(ctx context.Context, id int64, marks int) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE students SET marks = $1, updated_at = NOW() WHERE id = $2`,
		marks, id)
	if err != nil {
		return fmt.Errorf("error updating marks: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}

	return nil
}

// Delete removes an owned record by ID
func (r *StudentRepository) Delete(ctx context.Context, userID, id int64) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM students WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("error deleting student: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}

	return nil
}

// DeleteByIDs removes the given records in one statement, scoped to the
// owner, and returns how many rows were actually deleted.
func (r *StudentRepository) DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM students WHERE id = ANY($1) AND user_id = $2`,
		ids, userID)
	if err != nil {
		return 0, fmt.Errorf("error deleting students: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

// List retrieves a page of the owner's records matching the filter,
// ordered by id ascending so pages are stable across requests.
func (r *StudentRepository) List(ctx context.Context, userID int64, filter ListFilter) ([]*models.Student, error) {
	baseSelect := r.sb.Select(studentColumns).
		From("students").
		Where(r.whereCondition(userID, filter)).
		OrderBy("id ASC").
		Offset(filter.Offset)

	if filter.Limit > 0 {
		baseSelect = baseSelect.Limit(uint64(filter.Limit))
	}

	sql, args, err := baseSelect.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		var student models.Student
		if err := rows.Scan(
			&student.ID,
			&student.UserID,
			&student.Name,
			&student.Subject,
			&student.Marks,
			&student.CreatedAt,
			&student.UpdatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, &student)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return students, nil
}

// Count returns the number of the owner's records matching the filter
func (r *StudentRepository) Count(ctx context.Context, userID int64, filter ListFilter) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("students").
		Where(r.whereCondition(userID, filter)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting students: %w", err)
	}

	return count, nil
}

// DistinctSubjects lists the owner's subjects over the full owned set,
// independent of any active filter.
func (r *StudentRepository) DistinctSubjects(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT subject FROM students WHERE user_id = $1 ORDER BY subject`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subjects, nil
}

// SubjectSummaries computes per-subject aggregates for the dashboard
func (r *StudentRepository) SubjectSummaries(ctx context.Context, userID int64) ([]models.SubjectSummary, error) {
	query := `
		SELECT subject, AVG(marks)::float8, MAX(marks), MIN(marks), COUNT(*)
		FROM students
		WHERE user_id = $1
		GROUP BY subject
		ORDER BY subject
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error computing subject summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.SubjectSummary
	for rows.Next() {
		var s models.SubjectSummary
		if err := rows.Scan(&s.Subject, &s.Average, &s.Max, &s.Min, &s.Count); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// likeEscaper escapes LIKE metacharacters so user search text is matched
// literally instead of acting as a wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereCondition builds the shared predicate for List and Count so both
// always see the same subset.
func (r *StudentRepository) whereCondition(userID int64, filter ListFilter) squirrel.And {
	cond := squirrel.And{squirrel.Eq{"user_id": userID}}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(search) + "%"
		cond = append(cond, squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"subject": pattern},
		})
	}

	if filter.Subject != "" && filter.Subject != "all" {
		cond = append(cond, squirrel.Eq{"subject": filter.Subject})
	}

	return cond
}

// scanOne scans a single student row, mapping no-rows to the domain sentinel
func (r *StudentRepository) scanOne(row pgx.Row) (*models.Student, error) {
	var student models.Student
	err := row.Scan(
		&student.ID,
		&student.UserID,
		&student.Name,
		&student.Subject,
		&student.Marks,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error scanning student: %w", err)
	}

	return &student, nil
}
