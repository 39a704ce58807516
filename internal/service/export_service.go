package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/admissions-api/internal/models"
	appErrors "github.com/noah-isme/admissions-api/pkg/errors"
	"github.com/noah-isme/admissions-api/pkg/export"
)

// Export formats supported for the admin application export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var exportHeaders = []string{"ID", "Student", "Email", "Phone", "Course", "Status", "Submitted"}

type applicationLister interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries the rendered document and its content type.
type ExportResult struct {
	ContentType string
	Filename    string
	Body        []byte
}

// ExportService renders application listings for admin tooling.
type ExportService struct {
	applications applicationLister
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(applications applicationLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{applications: applications, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the filtered application list in the requested format.
func (s *ExportService) Export(ctx context.Context, filter models.ApplicationFilter, format string) (*ExportResult, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	// Exports page through everything; the repository caps page size.
	filter.Page = 1
	filter.PageSize = 100
	var rows []map[string]string
	for {
		applications, total, err := s.applications.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications for export")
		}
		for _, a := range applications {
			rows = append(rows, map[string]string{
				"ID":        a.ID,
				"Student":   a.FirstName + " " + a.LastName,
				"Email":     a.Email,
				"Phone":     a.Phone,
				"Course":    a.CourseTitle,
				"Status":    string(a.Status),
				"Submitted": a.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		if len(rows) >= total || len(applications) == 0 {
			break
		}
		filter.Page++
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: rows}

	switch format {
	case ExportFormatPDF:
		body, err := s.pdf.Render(dataset, "Applications")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{ContentType: "application/pdf", Filename: "applications.pdf", Body: body}, nil
	default:
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{ContentType: "text/csv", Filename: "applications.csv", Body: body}, nil
	}
}
