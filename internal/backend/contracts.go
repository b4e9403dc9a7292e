package backend

import (
	"context"
	"encoding/json"
	"io"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/entity"
)

// ProcessResult is one element of the extraction endpoint's result array:
// a single classified document page.
type ProcessResult struct {
	Klasifikasi     string          `json:"klasifikasi"`
	Data            map[string]any  `json:"data"`
	PreviewFilename string          `json:"preview_filename,omitempty"`
	Halaman         int             `json:"halaman,omitempty"`
}

// ProcessResponse is the extraction endpoint's success envelope.
type ProcessResponse struct {
	Success bool            `json:"success"`
	Results []ProcessResult `json:"results"`
}

// StringFields flattens the duck-typed data object into the string field map
// the review session edits. Numbers keep their canonical amount rendering.
func (r ProcessResult) StringFields() map[string]string {
	fields := make(map[string]string, len(r.Data))
	for k, v := range r.Data {
		switch t := v.(type) {
		case string:
			fields[k] = t
		case float64:
			fields[k] = entity.FormatAmount(t)
		case json.Number:
			fields[k] = t.String()
		case nil:
			fields[k] = ""
		default:
			b, err := json.Marshal(t)
			if err != nil {
				continue
			}
			fields[k] = string(b)
		}
	}
	return fields
}

// SaveItem is the wire shape for one item in a save request.
type SaveItem struct {
	Klasifikasi constants.Classification `json:"klasifikasi"`
	Data        map[string]string        `json:"data"`
}

// Service is the backend surface the session and report view depend on.
type Service interface {
	Process(ctx context.Context, domain constants.Domain, filePath, companyName string) (*ProcessResponse, error)
	Save(ctx context.Context, items []SaveItem) (string, error)
	Delete(ctx context.Context, jenis string, id int64) error
	Laporan(ctx context.Context, category constants.ReportCategory) ([]entity.ReportRecord, error)
	DownloadExport(ctx context.Context, category constants.ReportCategory, w io.Writer) error
}
