package entity

// ReportRecord is one persisted row returned by the laporan endpoint.
// Faktur categories fill the invoice fields; bukti_setor fills the deposit
// fields. The unused group stays at its zero value.
type ReportRecord struct {
	ID      int64  `json:"id"`
	Tanggal string `json:"tanggal"` // YYYY-MM-DD

	// faktur (ppn_masukan / ppn_keluaran)
	NoFaktur  string  `json:"no_faktur,omitempty"`
	NamaLawan string  `json:"nama_lawan_transaksi,omitempty"`
	DPP       float64 `json:"dpp,omitempty"`
	PPN       float64 `json:"ppn,omitempty"`

	// bukti_setor
	KodeSetor string  `json:"kode_setor,omitempty"`
	Jumlah    float64 `json:"jumlah,omitempty"`
}
