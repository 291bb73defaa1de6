package model

// ExportFormat selects the document encoding.
type ExportFormat string

const (
	FormatWord ExportFormat = "word"
	FormatPDF  ExportFormat = "pdf"
)

// Extension is the file extension for the format, without the dot.
func (f ExportFormat) Extension() string {
	switch f {
	case FormatWord:
		return "docx"
	case FormatPDF:
		return "pdf"
	}
	return ""
}

// ExportRequest is the body of POST /api/export/{word,pdf}.
type ExportRequest struct {
	TaskRequest        *Task       `json:"taskRequest"`
	AIGeneration       *Generation `json:"aiGeneration"`
	ClientApproval     bool        `json:"clientApproval"`
	ContractorApproval bool        `json:"contractorApproval"`
}

// ExportArtifact is the retrieval handle of a stored document.
type ExportArtifact struct {
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
}

type ExportTemplate struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Format      ExportFormat `json:"format"`
}
