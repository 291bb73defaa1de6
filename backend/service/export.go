package service

import (
	"context"
	"path/filepath"
	"time"

	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
)

var exportTemplates = []model.ExportTemplate{
	{ID: "standard", Name: "Standard specification", Description: "Basic technical specification template", Format: model.FormatWord},
	{ID: "detailed", Name: "Detailed specification", Description: "Extended template with a full project breakdown", Format: model.FormatWord},
	{ID: "contract", Name: "Contract", Description: "Project agreement between client and contractor", Format: model.FormatPDF},
}

// ExportService runs synthesis then storage for one export request.
type ExportService struct {
	renderers map[model.ExportFormat]Renderer
	store     ArtifactStore
	formatter *Formatter
	events    EventPublisher
	now       func() time.Time
}

func NewExportService(store ArtifactStore, formatter *Formatter, events EventPublisher, renderers ...Renderer) *ExportService {
	if events == nil {
		events = NoopPublisher{}
	}
	s := &ExportService{
		renderers: make(map[model.ExportFormat]Renderer, len(renderers)),
		store:     store,
		formatter: formatter,
		events:    events,
		now:       time.Now,
	}
	for _, r := range renderers {
		s.renderers[r.Format()] = r
	}
	return s
}

// Export validates the request, renders it and stores the bytes.
func (s *ExportService) Export(ctx context.Context, format model.ExportFormat, req model.ExportRequest) (model.ExportArtifact, error) {
	if req.TaskRequest == nil || req.AIGeneration == nil {
		return model.ExportArtifact{}, ErrExportInputRequired
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return model.ExportArtifact{}, ErrUnsupportedFormat
	}

	ctx = logger.WithTaskID(ctx, req.TaskRequest.ID)

	layout := BuildLayout(req.TaskRequest, req.AIGeneration, Approvals{
		Client:     req.ClientApproval,
		Contractor: req.ContractorApproval,
	}, s.now(), s.formatter)

	data, err := renderer.Render(layout)
	if err != nil {
		logger.Error(ctx, "Document synthesis failed", "format", format, "error", err)
		return model.ExportArtifact{}, err
	}

	artifact, err := s.store.Save(ctx, req.TaskRequest.ID, data, format.Extension())
	if err != nil {
		logger.Error(ctx, "Artifact storage failed", "format", format, "error", err)
		return model.ExportArtifact{}, err
	}

	s.events.Publish(ctx, Event{
		Type:   EventExportCreated,
		TaskID: req.TaskRequest.ID,
		Data:   artifact,
	})
	return artifact, nil
}

func (s *ExportService) Templates() []model.ExportTemplate {
	return append([]model.ExportTemplate(nil), exportTemplates...)
}

// Open returns a stored artifact and the content type to serve it with.
func (s *ExportService) Open(ctx context.Context, fileName string) (*Artifact, string, error) {
	a, err := s.store.Open(ctx, fileName)
	if err != nil {
		return nil, "", err
	}
	return a, contentTypeForName(fileName), nil
}

func contentTypeForName(name string) string {
	switch filepath.Ext(name) {
	case ".docx":
		return docxContentType
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}
