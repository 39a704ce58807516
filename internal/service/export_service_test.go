package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/admissions-api/internal/models"
	appErrors "github.com/noah-isme/admissions-api/pkg/errors"
	"github.com/noah-isme/admissions-api/pkg/export"
)

type mockLister struct {
	applications []models.ApplicationDetail
	lastFilter   models.ApplicationFilter
}

func (m *mockLister) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	m.lastFilter = filter
	total := len(m.applications)
	size := filter.PageSize
	start := (filter.Page - 1) * size
	if start >= total {
		return nil, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return m.applications[start:end], total, nil
}

type recordingPDF struct {
	rendered *export.Dataset
}

func (r *recordingPDF) Render(data export.Dataset, title string) ([]byte, error) {
	r.rendered = &data
	return []byte("%PDF-1.4"), nil
}

func sampleApplications(n int) []models.ApplicationDetail {
	applications := make([]models.ApplicationDetail, 0, n)
	for i := 0; i < n; i++ {
		applications = append(applications, models.ApplicationDetail{Application: models.Application{
			ID:          "a" + string(rune('0'+i%10)),
			FirstName:   "Ada",
			LastName:    "Lovelace",
			Email:       "ada@example.com",
			Phone:       "+100",
			CourseTitle: "Mathematics",
			Status:      models.ApplicationStatusPending,
			CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		}})
	}
	return applications
}

func TestExportCSV(t *testing.T) {
	lister := &mockLister{applications: sampleApplications(2)}
	svc := NewExportService(lister, export.NewCSVExporter(), &recordingPDF{}, zap.NewNop())

	result, err := svc.Export(context.Background(), models.ApplicationFilter{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "applications.csv", result.Filename)

	body := string(result.Body)
	assert.True(t, strings.HasPrefix(body, "ID,Student,Email,Phone,Course,Status,Submitted"))
	assert.Contains(t, body, "Ada Lovelace")
	assert.Contains(t, body, "2026-03-01 10:00")
}

func TestExportDefaultsToCSV(t *testing.T) {
	lister := &mockLister{applications: sampleApplications(1)}
	svc := NewExportService(lister, export.NewCSVExporter(), &recordingPDF{}, zap.NewNop())

	result, err := svc.Export(context.Background(), models.ApplicationFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
}

func TestExportPDF(t *testing.T) {
	lister := &mockLister{applications: sampleApplications(3)}
	pdf := &recordingPDF{}
	svc := NewExportService(lister, export.NewCSVExporter(), pdf, zap.NewNop())

	result, err := svc.Export(context.Background(), models.ApplicationFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "applications.pdf", result.Filename)
	require.NotNil(t, pdf.rendered)
	assert.Len(t, pdf.rendered.Rows, 3)
}

func TestExportUnknownFormat(t *testing.T) {
	svc := NewExportService(&mockLister{}, export.NewCSVExporter(), &recordingPDF{}, zap.NewNop())

	_, err := svc.Export(context.Background(), models.ApplicationFilter{}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportPagesThroughEverything(t *testing.T) {
	lister := &mockLister{applications: sampleApplications(150)}
	pdf := &recordingPDF{}
	svc := NewExportService(lister, export.NewCSVExporter(), pdf, zap.NewNop())

	result, err := svc.Export(context.Background(), models.ApplicationFilter{}, "pdf")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Len(t, pdf.rendered.Rows, 150)
	assert.Equal(t, 2, lister.lastFilter.Page)
}
