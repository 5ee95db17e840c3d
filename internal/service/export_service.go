package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/draft"
	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/seeds"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/export"
)

type activityFetcher interface {
	FetchOne(ctx context.Context, id string) (*models.Activity, error)
}

type worksheetRenderer interface {
	Render(ws export.Worksheet) ([]byte, error)
}

// ExportResult is a rendered document ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders activities as interchange JSON or printable PDF worksheets.
type ExportService struct {
	activities activityFetcher
	pdf        worksheetRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(activities activityFetcher, pdf worksheetRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{activities: activities, pdf: pdf, logger: logger}
}

// Resolve loads an activity by remote id or by seed reference.
func (s *ExportService) Resolve(ctx context.Context, id string) (*models.Activity, error) {
	if strings.HasPrefix(id, seeds.Prefix) {
		act, ok := seeds.Find(id)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "seed activity not found")
		}
		return &act, nil
	}
	return s.activities.FetchOne(ctx, id)
}

// ExportJSON renders the activity in the interchange format.
func (s *ExportService) ExportJSON(ctx context.Context, id string) (*ExportResult, error) {
	act, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return RenderJSON(*act)
}

// RenderJSON encodes an in-memory activity, such as a draft, for download.
func RenderJSON(act models.Activity) (*ExportResult, error) {
	payload, err := draft.ExportJSON(act)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode activity")
	}
	return &ExportResult{
		Filename:    draft.ExportFilename(act, "json"),
		ContentType: "application/json",
		Payload:     payload,
	}, nil
}

// ExportPDF renders the activity as a printable worksheet.
func (s *ExportService) ExportPDF(ctx context.Context, id string) (*ExportResult, error) {
	act, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.RenderPDF(*act)
}

// RenderPDF lays out an in-memory activity as a worksheet.
func (s *ExportService) RenderPDF(act models.Activity) (*ExportResult, error) {
	if strings.TrimSpace(act.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "add a title before printing")
	}
	payload, err := s.pdf.Render(Worksheet(act))
	if err != nil {
		s.logger.Error("render worksheet", zap.String("activity_id", act.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render worksheet")
	}
	return &ExportResult{
		Filename:    draft.ExportFilename(act, "pdf"),
		ContentType: "application/pdf",
		Payload:     payload,
	}, nil
}

// Worksheet projects an activity onto the printable layout. Link attachments are listed by URL;
// uploaded files are not embedded.
func Worksheet(act models.Activity) export.Worksheet {
	ws := export.Worksheet{
		Title:     act.Title,
		Objective: act.Objective,
		Tags:      append([]string(nil), act.Tags...),
	}
	var materials []string
	for _, m := range act.Materials {
		if strings.TrimSpace(m) != "" {
			materials = append(materials, "• "+strings.TrimSpace(m))
		}
	}
	ws.Materials = strings.Join(materials, "\n")
	if act.EstMinutes != nil {
		ws.EstMinutes = *act.EstMinutes
	}
	for _, section := range act.Sections {
		entry := export.WorksheetSection{Name: section.Name, Text: section.Text}
		for _, item := range section.Media {
			if item.URL != "" {
				entry.Links = append(entry.Links, item.URL)
			}
		}
		ws.Sections = append(ws.Sections, entry)
	}
	return ws
}
