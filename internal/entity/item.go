package entity

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/prasetyadi/faktur-review/constants"
)

// Well-known field keys for faktur documents. The backend returns these
// verbatim inside the result's data object.
const (
	FieldBulan      = "bulan"
	FieldTanggal    = "tanggal"
	FieldNoFaktur   = "no_faktur"
	FieldKeterangan = "keterangan"
	FieldNPWPLawan  = "npwp_lawan_transaksi"
	FieldNamaLawan  = "nama_lawan_transaksi"
	FieldDPP        = "dpp"
	FieldPPN        = "ppn"
	FieldKodeSetor  = "kode_setor"
	FieldJumlah     = "jumlah"
)

// VATRate is the PPN rate applied when auto-calculating the tax amount.
const VATRate = 0.11

// ExtractionItem is one reviewable unit: a single extracted document page.
// The ID is generated locally and is the only handle for targeting edits and
// saves before the backend assigns anything.
type ExtractionItem struct {
	ID             uuid.UUID                `json:"id"`
	SourceFileName string                   `json:"source_file_name"`
	Classification constants.Classification `json:"klasifikasi"`
	Fields         map[string]string        `json:"data"`
	PreviewRef     string                   `json:"preview_filename,omitempty"`
	PageNo         int                      `json:"halaman,omitempty"`
	SaveState      constants.SaveState      `json:"save_state"`
	SaveError      string                   `json:"save_error,omitempty"`
}

// NewExtractionItem builds an item with a fresh local ID and the initial
// save state.
func NewExtractionItem(sourceFile string, classification constants.Classification, fields map[string]string) *ExtractionItem {
	if fields == nil {
		fields = make(map[string]string)
	}
	return &ExtractionItem{
		ID:             uuid.New(),
		SourceFileName: sourceFile,
		Classification: classification,
		Fields:         fields,
		SaveState:      constants.SaveStateUnsaved,
	}
}

// Field returns the named field value, or "" when absent.
func (it *ExtractionItem) Field(name string) string {
	return it.Fields[name]
}

// Amount parses the named field as a monetary amount. The accepted form is
// digits with an optional "." decimal part, matching what FormatAmount emits.
// A comma is rejected as ambiguous: the Indonesian locale reads it as the
// decimal separator while OCR output may use it for thousands grouping.
func (it *ExtractionItem) Amount(name string) (float64, bool) {
	raw := strings.TrimSpace(it.Fields[name])
	if raw == "" || strings.ContainsRune(raw, ',') {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExpectedPPN computes round(dpp * 11%) from the current dpp field.
func (it *ExtractionItem) ExpectedPPN() (float64, bool) {
	dpp, ok := it.Amount(FieldDPP)
	if !ok || dpp <= 0 {
		return 0, false
	}
	return math.Round(dpp * VATRate), true
}

// FormatAmount renders a monetary amount the way the fields map stores it.
// Whole rupiah values drop the decimal part.
func FormatAmount(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Clone returns a deep copy so cached snapshots never alias live session state.
func (it *ExtractionItem) Clone() *ExtractionItem {
	cp := *it
	cp.Fields = make(map[string]string, len(it.Fields))
	for k, v := range it.Fields {
		cp.Fields[k] = v
	}
	return &cp
}
