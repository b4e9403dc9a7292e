package session

import (
	"math"

	"github.com/google/uuid"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/common"
	"github.com/prasetyadi/faktur-review/internal/entity"
)

// notFound is the backend's placeholder for fields OCR could not locate.
const notFound = "Tidak Ditemukan"

// ppnToleranceRupiah is the allowed drift between ppn and 11% of dpp before
// a warning is raised.
const ppnToleranceRupiah = 1.0

// ItemValidation separates blocking errors from advisory warnings, keyed by
// field name. Warnings never block a save.
type ItemValidation struct {
	Errors   map[string]string
	Warnings map[string]string
}

// Valid reports whether the item has no blocking errors.
func (v ItemValidation) Valid() bool {
	return len(v.Errors) == 0
}

// ValidateItem checks one faktur item's required fields and formats.
func (s *Session) ValidateItem(id uuid.UUID) (ItemValidation, error) {
	s.mu.Lock()
	item, ok := s.byID[id]
	s.mu.Unlock()
	if !ok {
		return ItemValidation{}, common.NewAppError("ITEM_NOT_FOUND", id.String(), common.ErrNotFound)
	}

	v := ItemValidation{
		Errors:   make(map[string]string),
		Warnings: make(map[string]string),
	}

	if item.Classification == constants.NeedsValidation {
		v.Errors["klasifikasi"] = "jenis pajak harus dipilih"
	}

	noFaktur := item.Field(entity.FieldNoFaktur)
	switch {
	case noFaktur == "" || noFaktur == notFound:
		v.Errors[entity.FieldNoFaktur] = "nomor faktur wajib diisi"
	case common.FakturNumber(entity.FieldNoFaktur, noFaktur) != nil:
		v.Warnings[entity.FieldNoFaktur] = "format nomor faktur tidak sesuai standar"
	}

	if item.Field(entity.FieldTanggal) == "" {
		v.Errors[entity.FieldTanggal] = "tanggal wajib diisi"
	}

	nama := item.Field(entity.FieldNamaLawan)
	if nama == "" || nama == notFound {
		v.Errors[entity.FieldNamaLawan] = "nama lawan transaksi wajib diisi"
	}

	if npwp := item.Field(entity.FieldNPWPLawan); npwp != "" && npwp != notFound {
		if common.NPWP(entity.FieldNPWPLawan, npwp) != nil {
			v.Warnings[entity.FieldNPWPLawan] = "format NPWP tidak sesuai standar"
		}
	}

	dpp, dppOK := item.Amount(entity.FieldDPP)
	if !dppOK || dpp <= 0 {
		v.Errors[entity.FieldDPP] = "dpp harus lebih dari 0"
	}

	ppn, ppnOK := item.Amount(entity.FieldPPN)
	switch {
	case !ppnOK || ppn <= 0:
		v.Errors[entity.FieldPPN] = "ppn harus lebih dari 0"
	case dppOK && dpp > 0 && math.Abs(ppn-dpp*entity.VATRate) > ppnToleranceRupiah:
		v.Warnings[entity.FieldPPN] = "ppn tidak sesuai dengan 11% dari dpp"
	}

	return v, nil
}
