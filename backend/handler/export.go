package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
	"github.com/SergeyShakirov/TaskGo/backend/service"
)

type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler serves the /api/export routes.
func NewExportHandler(s *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: s}
}

// Word synthesizes and stores a .docx export.
func (h *ExportHandler) Word(c *gin.Context) {
	h.export(c, model.FormatWord, "Document generated successfully", "Failed to export to Word")
}

// PDF synthesizes and stores a .pdf export.
func (h *ExportHandler) PDF(c *gin.Context) {
	h.export(c, model.FormatPDF, "PDF document generated successfully", "Failed to export to PDF")
}

func (h *ExportHandler) export(c *gin.Context, format model.ExportFormat, okMsg, failMsg string) {
	var req model.ExportRequest
	if !bindJSON(c, &req) {
		return
	}

	artifact, err := h.exports.Export(c.Request.Context(), format, req)
	if err != nil {
		failErr(c, err, failMsg)
		return
	}
	respond(c, http.StatusOK, artifact, okMsg)
}

// Templates lists the available document templates.
func (h *ExportHandler) Templates(c *gin.Context) {
	respond(c, http.StatusOK, h.exports.Templates(), "")
}

// Download streams a stored artifact as an attachment.
func (h *ExportHandler) Download(c *gin.Context) {
	name := c.Param("fileName")

	a, contentType, err := h.exports.Open(c.Request.Context(), name)
	if err != nil {
		failErr(c, err, "Failed to download file")
		return
	}
	defer a.Body.Close()

	logger.Debug(c.Request.Context(), "serving artifact", "file", a.Name, "size", a.Size)

	c.DataFromReader(http.StatusOK, a.Size, contentType, a.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, a.Name),
		"Last-Modified":       a.ModTime.UTC().Format(http.TimeFormat),
	})
}
