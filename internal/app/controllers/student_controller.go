package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kutay/teacherportal/internal/app/models/dto"
	"github.com/kutay/teacherportal/internal/app/services"
	"github.com/kutay/teacherportal/internal/middleware"
	"github.com/kutay/teacherportal/internal/pkg/apperrors"
	"github.com/kutay/teacherportal/internal/pkg/helpers"
)

// StudentController handles student record operations
type StudentController struct {
	studentService services.StudentService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService, logger zerolog.Logger) *StudentController {
	return &StudentController{
		studentService: studentService,
		logger:         logger,
	}
}

// List handles the filtered, paginated student listing
// @Summary List student records
// @Description Returns one page of the teacher's student records, filtered by search text and subject. Pages hold 10 records.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Case-insensitive substring matched against name or subject"
// @Param subject query string false "Exact subject filter; omit or pass 'all' to disable"
// @Param page query int false "1-based page number, clamped into range" default(1)
// @Success 200 {object} dto.APIResponse{data=dto.StudentListResponse} "Listing retrieved"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students [get]
func (c *StudentController) List(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		c.unauthorized(ctx)
		return
	}

	search := ctx.Query("search")
	subject := ctx.Query("subject")
	page := helpers.ParsePageParam(ctx)

	listing, err := c.studentService.List(ctx.Request.Context(), userID, search, subject, page)
	if err != nil {
		c.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to list students")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Success:    true,
		Data:       listing,
		Pagination: &listing.Pagination,
	})
}

// Add handles a manual add submission
// @Summary Add a student record
// @Description Saves a (name, subject, marks) submission. A record with the same name and subject has its marks overwritten.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SaveStudentRequest true "Student record"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse} "Existing record updated"
// @Success 201 {object} dto.APIResponse{data=dto.StudentResponse} "Record created"
// @Failure 400 {object} dto.ErrorResponse "Missing fields or invalid marks"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students [post]
func (c *StudentController) Add(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		c.unauthorized(ctx)
		return
	}

	var req dto.SaveStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid add student payload")
		middleware.HandleAPIError(ctx, apperrors.ErrMissingFields)
		return
	}

	student, created, err := c.studentService.AddStudent(ctx.Request.Context(), userID, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to add student")
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	message := "Student record updated"
	if created {
		status = http.StatusCreated
		message = "Student record created"
	}

	c.logger.Info().
		Int64("userID", userID).
		Int64("studentID", student.ID).
		Bool("created", created).
		Msg("Student record saved")

	ctx.JSON(status, dto.NewAPIResponse(dto.FromStudent(student), message))
}

// Edit handles an edit submission for an existing record
// @Summary Edit a student record
// @Description Rewrites the name, subject and marks of an owned record
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student record ID"
// @Param request body dto.SaveStudentRequest true "New field values"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse} "Record updated"
// @Failure 400 {object} dto.ErrorResponse "Missing fields or invalid marks"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 409 {object} dto.ErrorResponse "Another record already uses this name and subject"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/{id} [put]
func (c *StudentController) Edit(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		c.unauthorized(ctx)
		return
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleAPIError(ctx, apperrors.ErrStudentNotFound)
		return
	}

	var req dto.SaveStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid edit student payload")
		middleware.HandleAPIError(ctx, apperrors.ErrMissingFields)
		return
	}

	student, err := c.studentService.EditStudent(ctx.Request.Context(), userID, id, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Int64("studentID", id).Msg("Failed to edit student")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromStudent(student), "Student record updated"))
}

// Delete removes one owned record
// @Summary Delete a student record
// @Description Removes an owned record by ID
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student record ID"
// @Success 200 {object} dto.APIResponse "Record deleted"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/{id} [delete]
func (c *StudentController) Delete(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		c.unauthorized(ctx)
		return
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleAPIError(ctx, apperrors.ErrStudentNotFound)
		return
	}

	if err := c.studentService.DeleteStudent(ctx.Request.Context(), userID, id); err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Int64("studentID", id).Msg("Failed to delete student")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", userID).Int64("studentID", id).Msg("Student record deleted")

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Student record deleted"))
}

// BulkDelete removes a batch of owned records
// @Summary Bulk delete student records
// @Description Removes the identified records in one batch. IDs that do not exist or belong to another teacher are ignored.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkDeleteRequest true "IDs to delete"
// @Success 200 {object} dto.APIResponse{data=dto.BulkDeleteResponse} "Records deleted"
// @Failure 400 {object} dto.ErrorResponse "Malformed request body or no student IDs provided"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 404 {object} dto.ErrorResponse "No matching students found or deleted"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/bulk-delete [post]
func (c *StudentController) BulkDelete(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		c.unauthorized(ctx)
		return
	}

	var req dto.BulkDeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid bulk delete payload")
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	deleted, err := c.studentService.BulkDelete(ctx.Request.Context(), userID, req.IDs)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Msg("Bulk delete failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", userID).Int64("deleted", deleted).Msg("Bulk delete completed")

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.BulkDeleteResponse{DeletedCount: deleted}, "Student records deleted"))
}

// Dashboard returns per-subject aggregates
// @Summary Subject dashboard
// @Description Returns average, maximum, minimum and count of marks per subject over the teacher's records
// @Tags students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse} "Dashboard computed"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/dashboard [get]
func (c *StudentController) Dashboard(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		c.unauthorized(ctx)
		return
	}

	dashboard, err := c.studentService.Dashboard(ctx.Request.Context(), userID)
	if err != nil {
		c.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to compute dashboard")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dashboard, "Dashboard computed"))
}

func (c *StudentController) unauthorized(ctx *gin.Context) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}
