package dto

import "github.com/kutay/teacherportal/internal/app/models"

// SaveStudentRequest carries a manual add or edit submission. Marks travels
// as text so that a non-integer value can be rejected with the exact
// "Marks must be a valid number." message instead of a generic bind error.
type SaveStudentRequest struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Marks   string `json:"marks"`
}

// BulkDeleteRequest identifies the records to remove
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// BulkDeleteResponse reports how many records were removed
type BulkDeleteResponse struct {
	DeletedCount int64 `json:"deletedCount" example:"3"`
}

// StudentResponse represents a single student record
type StudentResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Subject   string `json:"subject"`
	Marks     int    `json:"marks"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// StudentListResponse represents the filtered, paginated listing plus the
// distinct subjects of the owner (always over the full owned set)
type StudentListResponse struct {
	Students    []StudentResponse `json:"students"`
	AllSubjects []string          `json:"allSubjects"`
	Pagination  PaginationInfo    `json:"pagination"`
}

// DashboardResponse represents per-subject aggregates for the owner
type DashboardResponse struct {
	Summary []models.SubjectSummary `json:"summary"`
}

// FromStudent converts a models.Student to a StudentResponse
func FromStudent(s *models.Student) StudentResponse {
	if s == nil {
		return StudentResponse{}
	}
	return StudentResponse{
		ID:        s.ID,
		Name:      s.Name,
		Subject:   s.Subject,
		Marks:     s.Marks,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// FromStudents converts a slice of students
func FromStudents(students []*models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, FromStudent(s))
	}
	return out
}
