package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admissions-api/internal/models"
	"github.com/noah-isme/admissions-api/internal/service"
	appErrors "github.com/noah-isme/admissions-api/pkg/errors"
	"github.com/noah-isme/admissions-api/pkg/response"
)

type applicationService interface {
	Submit(ctx context.Context, studentID string, req service.SubmitApplicationRequest) (*models.Application, error)
	SubmitBatch(ctx context.Context, studentID string, req service.BatchSubmitRequest) ([]service.CourseSubmitResult, error)
	UpdateStatus(ctx context.Context, id string, req service.UpdateApplicationStatusRequest) (*models.Application, error)
	Delete(ctx context.Context, id string) error
	ListForAdmin(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, *models.Pagination, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.Application, error)
	Enrollment(ctx context.Context, studentID string) ([]models.Course, error)
}

type exportService interface {
	Export(ctx context.Context, filter models.ApplicationFilter, format string) (*service.ExportResult, error)
}

type submitPayload struct {
	service.ApplicantSnapshot
	CourseID  string   `json:"course_id"`
	CourseIDs []string `json:"course_ids"`
}

// ApplicationHandler exposes the application lifecycle endpoints.
type ApplicationHandler struct {
	applications applicationService
	exports      exportService
	metrics      *service.MetricsService
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(applications applicationService, exports exportService, metrics *service.MetricsService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, exports: exports, metrics: metrics}
}

// Submit godoc
// @Summary Submit application(s)
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body submitPayload true "Applicant snapshot with course_id or course_ids"
// @Success 201 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload submitPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if len(payload.CourseIDs) > 0 {
		h.submitBatch(c, claims.UserID, payload)
		return
	}

	application, err := h.applications.Submit(c.Request.Context(), claims.UserID, service.SubmitApplicationRequest{
		ApplicantSnapshot: payload.ApplicantSnapshot,
		CourseID:          payload.CourseID,
	})
	if err != nil {
		h.recordSubmitOutcome(err)
		response.Error(c, err)
		return
	}
	h.recordSubmitOutcome(nil)
	response.Created(c, application)
}

func (h *ApplicationHandler) submitBatch(c *gin.Context, studentID string, payload submitPayload) {
	results, err := h.applications.SubmitBatch(c.Request.Context(), studentID, service.BatchSubmitRequest{
		ApplicantSnapshot: payload.ApplicantSnapshot,
		CourseIDs:         payload.CourseIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	anySuccess := false
	for _, result := range results {
		if result.Error == nil {
			anySuccess = true
			h.recordSubmitOutcome(nil)
		} else {
			h.recordSubmitOutcome(result.Error)
		}
	}

	status := http.StatusCreated
	if !anySuccess {
		status = http.StatusBadRequest
	}
	response.JSON(c, status, results, nil)
}

// List godoc
// @Summary List applications (admin)
// @Tags Applications
// @Produce json
// @Param status query string false "Filter by status"
// @Param courseId query string false "Filter by course"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	var filter models.ApplicationFilter
	filter.Status = models.ApplicationStatus(c.Query("status"))
	filter.CourseID = c.Query("courseId")
	filter.StudentID = c.Query("studentId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	applications, pagination, err := h.applications.ListForAdmin(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applications, pagination)
}

// ListMine godoc
// @Summary List caller's applications
// @Tags Applications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /applications/me [get]
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	applications, err := h.applications.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applications, nil)
}

// MyCourses godoc
// @Summary List caller's enrolled courses
// @Tags Applications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /applications/me/courses [get]
func (h *ApplicationHandler) MyCourses(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courses, err := h.applications.Enrollment(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// UpdateStatus godoc
// @Summary Accept or reject an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body service.UpdateApplicationStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /applications/{id} [put]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	application, err := h.applications.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordApplicationEvent(string(application.Status))
	}
	response.JSON(c, http.StatusOK, application, nil)
}

// Delete godoc
// @Summary Delete application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 204
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) Delete(c *gin.Context) {
	if err := h.applications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordApplicationEvent("deleted")
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export applications (admin)
// @Tags Applications
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param status query string false "Filter by status"
// @Success 200 {file} binary
// @Router /applications/export [get]
func (h *ApplicationHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports disabled"))
		return
	}
	var filter models.ApplicationFilter
	filter.Status = models.ApplicationStatus(c.Query("status"))
	filter.CourseID = c.Query("courseId")

	result, err := h.exports.Export(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Body)
}

func (h *ApplicationHandler) recordSubmitOutcome(err error) {
	if h.metrics == nil {
		return
	}
	if err == nil {
		h.metrics.RecordApplicationEvent("submitted")
		return
	}
	if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrDuplicateApplication.Code {
		h.metrics.RecordApplicationEvent("duplicate_blocked")
	}
}
