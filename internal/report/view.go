// Package report implements the read-only report view over previously saved
// records: category listing, bulk delete, backend export download, and a
// local XLSX fallback exporter.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/backend"
	"github.com/prasetyadi/faktur-review/internal/common"
	"github.com/prasetyadi/faktur-review/internal/entity"
)

// ConfirmFunc gates destructive operations. It receives a human-readable
// prompt and returns whether the user approved.
type ConfirmFunc func(prompt string) bool

// View holds the rows loaded for one report category.
type View struct {
	svc      backend.Service
	logger   *slog.Logger
	category constants.ReportCategory
	rows     []entity.ReportRecord
}

// NewView builds a report view over the backend service.
func NewView(svc backend.Service, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{svc: svc, logger: logger}
}

// Load fetches the records for a category, replacing the displayed list.
// A fetch failure is non-fatal: the view shows an empty list and logs.
func (v *View) Load(ctx context.Context, category constants.ReportCategory) []entity.ReportRecord {
	v.category = category
	rows, err := v.svc.Laporan(ctx, category)
	if err != nil {
		v.logger.Error("report.load_error", "category", string(category), "error", err)
		v.rows = nil
		return nil
	}
	v.rows = rows
	v.logger.Info("report.load_ok", "category", string(category), "rows", len(rows))
	return v.Rows()
}

// Rows returns the currently displayed records.
func (v *View) Rows() []entity.ReportRecord {
	return append([]entity.ReportRecord(nil), v.rows...)
}

// Category returns the category the view last loaded.
func (v *View) Category() constants.ReportCategory {
	return v.category
}

// Export downloads the backend's XLSX export for the loaded category to
// outPath. The view's own state does not change.
func (v *View) Export(ctx context.Context, category constants.ReportCategory, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := v.svc.DownloadExport(ctx, category, f); err != nil {
		return common.WrapError(err, "download export")
	}
	v.logger.Info("report.export_ok", "category", string(category), "path", outPath)
	return nil
}

// ExportLocal builds the workbook locally with excelize from the loaded
// rows and writes it to outPath. Offline fallback for when the backend
// export endpoint is unreachable.
func (v *View) ExportLocal(outPath string) error {
	data, err := BuildXLSX(v.category, v.rows)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	v.logger.Info("export.xlsx.ok", "category", string(v.category), "rows", len(v.rows), "path", outPath)
	return nil
}

// DeleteSelected removes exactly the explicitly checked rows. It refuses to
// dispatch without confirmation and removes only the ids the backend
// acknowledged from the displayed list.
func (v *View) DeleteSelected(ctx context.Context, ids []int64, confirm ConfirmFunc) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if confirm == nil || !confirm(fmt.Sprintf("Yakin ingin menghapus %d data?", len(ids))) {
		return 0, common.NewAppError("DELETE_DECLINED", "deletion not confirmed", common.ErrInvalidInput)
	}

	deleted := make(map[int64]struct{}, len(ids))
	var firstErr error
	for _, id := range ids {
		if err := v.svc.Delete(ctx, string(v.category), id); err != nil {
			v.logger.Error("report.delete_error", "id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted[id] = struct{}{}
	}

	if len(deleted) > 0 {
		kept := v.rows[:0]
		for _, row := range v.rows {
			if _, gone := deleted[row.ID]; !gone {
				kept = append(kept, row)
			}
		}
		v.rows = kept
	}
	return len(deleted), firstErr
}
