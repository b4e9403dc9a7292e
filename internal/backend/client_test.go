package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/common"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(common.BackendConfig{BaseURL: srv.URL}, nil)
}

func writeTempPDF(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "faktur.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4 dummy"), 0644))
	return p
}

func TestProcess_Success(t *testing.T) {
	var gotCompany, gotFile string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/faktur/process", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotCompany = r.FormValue("nama_pt_utama")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		gotFile = hdr.Filename

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"results": []map[string]any{{
				"klasifikasi": "PPN_MASUKAN",
				"data": map[string]any{
					"no_faktur":  "010.000-25.00000001",
					"dpp":        1000000,
					"keterangan": nil,
				},
				"preview_filename": "preview_ab12_halaman_1.jpg",
				"halaman":          1,
			}},
		})
	}))

	resp, err := client.Process(context.Background(), constants.DomainFaktur, writeTempPDF(t), "PT MAJU JAYA ABADI")
	require.NoError(t, err)

	assert.Equal(t, "PT MAJU JAYA ABADI", gotCompany)
	assert.Equal(t, "faktur.pdf", gotFile)
	require.Len(t, resp.Results, 1)

	fields := resp.Results[0].StringFields()
	assert.Equal(t, "010.000-25.00000001", fields["no_faktur"])
	assert.Equal(t, "1000000", fields["dpp"], "numbers flatten to canonical amount strings")
	assert.Equal(t, "", fields["keterangan"], "null flattens to empty")
	assert.Equal(t, "preview_ab12_halaman_1.jpg", resp.Results[0].PreviewFilename)
}

func TestProcess_ServerErrorSurfacedVerbatim(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Nama PT Utama wajib diisi"})
	}))

	_, err := client.Process(context.Background(), constants.DomainFaktur, writeTempPDF(t), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBackend)
	assert.Contains(t, err.Error(), "Nama PT Utama wajib diisi")
}

func TestProcess_RejectsUnexpectedShape(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// klasifikasi outside the enum
		io.WriteString(w, `{"results":[{"klasifikasi":"WHATEVER","data":{}}]}`)
	}))

	_, err := client.Process(context.Background(), constants.DomainFaktur, writeTempPDF(t), "PT X")
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BACKEND_SHAPE", appErr.Code)
}

func TestProcess_TransportError(t *testing.T) {
	client := NewClient(common.BackendConfig{BaseURL: "http://127.0.0.1:1"}, nil)

	_, err := client.Process(context.Background(), constants.DomainFaktur, writeTempPDF(t), "PT X")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestSave_SendsArrayAndReturnsMessage(t *testing.T) {
	var body []map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/save", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]string{"message": "Data berhasil disimpan"})
	}))

	msg, err := client.Save(context.Background(), []SaveItem{{
		Klasifikasi: constants.InputVAT,
		Data:        map[string]string{"no_faktur": "010.000-25.00000001"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "Data berhasil disimpan", msg)

	require.Len(t, body, 1)
	assert.Equal(t, "PPN_MASUKAN", body[0]["klasifikasi"])
}

func TestSave_ServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "duplikat no_faktur"})
	}))

	_, err := client.Save(context.Background(), []SaveItem{{Klasifikasi: constants.InputVAT}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBackend)
	assert.Contains(t, err.Error(), "duplikat no_faktur")
}

func TestDelete(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
	}))

	require.NoError(t, client.Delete(context.Background(), "ppn_masukan", 42))
	assert.Equal(t, "/api/delete/ppn_masukan/42", gotPath)
}

func TestLaporan(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/laporan/ppn_keluaran", r.URL.Path)
		io.WriteString(w, `[
			{"id":1,"tanggal":"2026-07-01","no_faktur":"010.000-25.00000001","nama_lawan_transaksi":"PT A","dpp":1000000,"ppn":110000},
			{"id":2,"tanggal":"2026-07-02","no_faktur":"010.000-25.00000002","nama_lawan_transaksi":"PT B","dpp":500000,"ppn":55000}
		]`)
	}))

	rows, err := client.Laporan(context.Background(), constants.ReportOutputVAT)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, "PT A", rows[0].NamaLawan)
	assert.Equal(t, 110000.0, rows[0].PPN)
}

func TestDownloadExport(t *testing.T) {
	payload := []byte("xlsx-bytes")
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/laporan/export/bukti_setor", r.URL.Path)
		w.Write(payload)
	}))

	var buf bytes.Buffer
	require.NoError(t, client.DownloadExport(context.Background(), constants.ReportBuktiSetor, &buf))
	assert.Equal(t, payload, buf.Bytes())
}

func TestURLHelpers(t *testing.T) {
	client := NewClient(common.BackendConfig{BaseURL: "http://backend:5000"}, nil)

	assert.Equal(t, "http://backend:5000/api/laporan/export/ppn_masukan", client.ExportURL(constants.ReportInputVAT))
	assert.Equal(t,
		"http://backend:5000/api/bukti_setor/uploads/preview_1.jpg",
		client.PreviewURL(constants.DomainBuktiSetor, "preview_1.jpg"))
}
