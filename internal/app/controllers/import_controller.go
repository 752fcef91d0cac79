package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kutay/teacherportal/internal/app/models/dto"
	"github.com/kutay/teacherportal/internal/app/services"
	"github.com/kutay/teacherportal/internal/middleware"
	"github.com/kutay/teacherportal/internal/pkg/apperrors"
)

// maxImportSize caps an uploaded CSV at 10 MiB.
const maxImportSize = 10 << 20

// ImportController handles bulk CSV imports
type ImportController struct {
	importService services.ImportService
	logger        zerolog.Logger
}

// NewImportController creates a new ImportController
func NewImportController(importService services.ImportService, logger zerolog.Logger) *ImportController {
	return &ImportController{
		importService: importService,
		logger:        logger,
	}
}

// Import handles a CSV upload
// @Summary Import student records from CSV
// @Description Reconciles every valid row of the uploaded CSV into the teacher's records, accumulating marks on natural-key matches. Malformed rows are skipped and reported.
// @Tags students
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file with name, subject and marks columns"
// @Success 200 {object} dto.APIResponse{data=dto.ImportReport} "Import finished"
// @Failure 400 {object} dto.ErrorResponse "Missing file, unreadable CSV or missing header columns"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/import [post]
func (c *ImportController) Import(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		c.logger.Warn().Err(err).Msg("Import request without a file")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "A CSV file is required")
		errorDetail = errorDetail.WithField("file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if fileHeader.Size > maxImportSize {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Import file is too large")
		errorDetail = errorDetail.WithField("file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		c.logger.Warn().Str("filename", fileHeader.Filename).Msg("Rejected non-CSV import upload")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Only CSV files can be imported")
		errorDetail = errorDetail.WithField("file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to open uploaded file")
		middleware.HandleAPIError(ctx, apperrors.ErrUnreadableImport)
		return
	}
	defer file.Close()

	report, err := c.importService.ImportCSV(ctx.Request.Context(), userID, file)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Msg("CSV import failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Str("batchID", report.BatchID).
		Int64("userID", userID).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", len(report.Skipped)).
		Msg("CSV import finished")

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report, "Import finished"))
}
