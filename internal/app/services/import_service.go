package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/kutay/teacherportal/internal/app/models"
	"github.com/kutay/teacherportal/internal/app/models/dto"
	"github.com/kutay/teacherportal/internal/pkg/apperrors"
	"github.com/kutay/teacherportal/internal/pkg/logger"
)

// importColumns are the header names the CSV parser looks for,
// matched case-insensitively.
var importColumns = []string{"name", "subject", "marks"}

// ImportService defines the interface for bulk CSV imports
type ImportService interface {
	// ImportCSV streams a CSV document and reconciles every valid row into
	// the owner's records with the ACCUMULATE policy. Malformed rows are
	// skipped and reported; they never abort the batch.
	ImportCSV(ctx context.Context, userID int64, r io.Reader) (*dto.ImportReport, error)
}

// importServiceImpl implements the ImportService interface
type importServiceImpl struct {
	studentService StudentService
}

// NewImportService creates a new import service instance
func NewImportService(studentService StudentService) ImportService {
	return &importServiceImpl{
		studentService: studentService,
	}
}

func (s *importServiceImpl) ImportCSV(ctx context.Context, userID int64, r io.Reader) (*dto.ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Rows with a wrong column count are a per-row problem, not a file
	// problem, so field count checking is done by hand below.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.ErrUnreadableImport
	}

	colIdx, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	report := &dto.ImportReport{
		BatchID: uuid.New().String(),
		Skipped: []dto.SkippedRow{},
	}

	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.skip(report, line, "", fmt.Sprintf("malformed CSV row: %v", err))
			continue
		}

		raw := strings.Join(record, ",")

		name, subject, marksText, ok := extractRow(record, colIdx)
		if !ok {
			s.skip(report, line, raw, "row has fewer columns than the header")
			continue
		}

		if name == "" || subject == "" || marksText == "" {
			s.skip(report, line, raw, "missing name, subject or marks")
			continue
		}

		marks, err := ParseMarks(marksText)
		if err != nil {
			s.skip(report, line, raw, fmt.Sprintf("invalid marks value %q", marksText))
			continue
		}

		_, created, err := s.studentService.Reconcile(ctx, userID, name, subject, marks, models.MergeAccumulate)
		if err != nil {
			s.skip(report, line, raw, fmt.Sprintf("failed to save row: %v", err))
			continue
		}

		report.Processed++
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	logger.Info().
		Str("batchID", report.BatchID).
		Int64("userID", userID).
		Int("processed", report.Processed).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", len(report.Skipped)).
		Msg("CSV import finished")

	return report, nil
}

// skip records one rejected row and logs it without stopping the batch
func (s *importServiceImpl) skip(report *dto.ImportReport, line int, raw, reason string) {
	report.Skipped = append(report.Skipped, dto.SkippedRow{
		Line:   line,
		Raw:    raw,
		Reason: reason,
	})
	logger.Warn().
		Str("batchID", report.BatchID).
		Int("line", line).
		Str("reason", reason).
		Msg("Skipping import row")
}

// mapHeader resolves the position of each required column in the header,
// case-insensitively. A missing column fails the whole import.
func mapHeader(header []string) (map[string]int, error) {
	colIdx := make(map[string]int, len(importColumns))
	for i, cell := range header {
		colIdx[strings.ToLower(strings.TrimSpace(cell))] = i
	}

	for _, col := range importColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, apperrors.NewCustomError(
				apperrors.ErrMissingHeader,
				fmt.Sprintf("CSV is missing required column %q", col),
			)
		}
	}

	return colIdx, nil
}

// extractRow pulls the three tracked fields out of a record. ok is false
// when the record is too short to hold one of the mapped columns.
func extractRow(record []string, colIdx map[string]int) (name, subject, marks string, ok bool) {
	for _, col := range importColumns {
		if colIdx[col] >= len(record) {
			return "", "", "", false
		}
	}

	name = strings.TrimSpace(record[colIdx["name"]])
	subject = strings.TrimSpace(record[colIdx["subject"]])
	marks = strings.TrimSpace(record[colIdx["marks"]])
	return name, subject, marks, true
}
