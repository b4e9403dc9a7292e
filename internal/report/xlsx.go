package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/entity"
)

// BuildXLSX renders report rows into an XLSX workbook locally. It mirrors the
// backend's export layout so the offline fallback stays drop-in compatible.
func BuildXLSX(category constants.ReportCategory, rows []entity.ReportRecord) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Laporan"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
	}

	headers := fakturHeaders
	if category == constants.ReportBuktiSetor {
		headers = buktiSetorHeaders
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	for i, r := range rows {
		row := i + 2
		if category == constants.ReportBuktiSetor {
			write(1, row, r.Tanggal)
			write(2, row, r.KodeSetor)
			write(3, row, r.Jumlah)
			continue
		}
		write(1, row, r.Tanggal)
		write(2, row, r.NoFaktur)
		write(3, row, r.NamaLawan)
		write(4, row, r.DPP)
		write(5, row, r.PPN)
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 24) // invoice number / deposit code
	_ = f.SetColWidth(sheet, "C", "C", 32) // counterparty / amount
	_ = f.SetColWidth(sheet, "D", "E", 16) // amounts

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

var fakturHeaders = []string{
	"Tanggal",
	"No. Faktur",
	"Nama Lawan Transaksi",
	"DPP",
	"PPN",
}

var buktiSetorHeaders = []string{
	"Tanggal",
	"Kode Setor",
	"Jumlah",
}
