package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/backend"
	"github.com/prasetyadi/faktur-review/internal/common"
	"github.com/prasetyadi/faktur-review/internal/entity"
)

// fakeService scripts backend responses per file and counts save traffic.
type fakeService struct {
	mu          sync.Mutex
	processFn   func(fileName string) (*backend.ProcessResponse, error)
	processCnt  int
	processed   []string
	saveErr     error
	saveCalls   int
	saveBatches [][]backend.SaveItem
	saveGate    chan struct{} // when non-nil, Save blocks until closed
}

func (f *fakeService) Process(_ context.Context, _ constants.Domain, filePath, _ string) (*backend.ProcessResponse, error) {
	f.mu.Lock()
	f.processCnt++
	f.processed = append(f.processed, filepath.Base(filePath))
	fn := f.processFn
	f.mu.Unlock()
	if fn == nil {
		return &backend.ProcessResponse{Success: true}, nil
	}
	return fn(filepath.Base(filePath))
}

func (f *fakeService) Save(_ context.Context, items []backend.SaveItem) (string, error) {
	f.mu.Lock()
	gate := f.saveGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	f.saveBatches = append(f.saveBatches, items)
	if f.saveErr != nil {
		return "", f.saveErr
	}
	return "ok", nil
}

func (f *fakeService) Delete(context.Context, string, int64) error { return nil }

func (f *fakeService) Laporan(context.Context, constants.ReportCategory) ([]entity.ReportRecord, error) {
	return nil, nil
}

func (f *fakeService) DownloadExport(context.Context, constants.ReportCategory, io.Writer) error {
	return nil
}

func (f *fakeService) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveCalls
}

// recorder captures session notifications.
type recorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *recorder) notifier() Notifier {
	return NotifierFunc(func(level Level, message string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.entries = append(r.entries, string(level)+": "+message)
	})
}

func (r *recorder) count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if strings.HasPrefix(e, string(level)+": ") {
			n++
		}
	}
	return n
}

func (r *recorder) containing(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if strings.Contains(e, substr) {
			n++
		}
	}
	return n
}

func writeTempFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("dummy"), 0644))
		paths = append(paths, p)
	}
	return paths
}

func resultPage(fields map[string]any) backend.ProcessResult {
	return backend.ProcessResult{
		Klasifikasi:     string(constants.InputVAT),
		Data:            fields,
		PreviewFilename: "preview_1.jpg",
		Halaman:         1,
	}
}

func newTestSession(t *testing.T, svc backend.Service, rec *recorder) *Session {
	t.Helper()
	return New(constants.DomainFaktur, svc, Options{
		CompanyName: "PT MAJU JAYA ABADI",
		Notifier:    rec.notifier(),
	})
}

func TestSelectFiles_AdvisoryFiltering(t *testing.T) {
	svc := &fakeService{}
	rec := &recorder{}
	sess := newTestSession(t, svc, rec)

	paths := writeTempFiles(t, "a.pdf", "b.exe", "c.PNG")
	batch := sess.SelectFiles(paths)

	require.Len(t, batch.Accepted, 2)
	assert.Equal(t, paths[0], batch.Accepted[0])
	assert.Equal(t, paths[2], batch.Accepted[1])

	require.Len(t, batch.Rejected, 1)
	assert.Equal(t, paths[1], batch.Rejected[0].Path)
	assert.Equal(t, 1, rec.count(LevelWarn), "rejected file must be reported, not silently dropped")
}

func TestSelectFiles_MissingFileRejected(t *testing.T) {
	sess := newTestSession(t, &fakeService{}, &recorder{})

	batch := sess.SelectFiles([]string{filepath.Join(t.TempDir(), "ghost.pdf")})
	assert.True(t, batch.Empty())
	require.Len(t, batch.Rejected, 1)
}

func TestProcessBatch_FailsFastWithoutFiles(t *testing.T) {
	svc := &fakeService{}
	sess := newTestSession(t, svc, &recorder{})

	_, err := sess.ProcessBatch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, 0, svc.processCnt, "validation failure must not issue a network call")
}

func TestProcessBatch_FailsFastWithoutCompanyName(t *testing.T) {
	svc := &fakeService{}
	sess := New(constants.DomainFaktur, svc, Options{Notifier: (&recorder{}).notifier()})
	sess.SelectFiles(writeTempFiles(t, "a.pdf"))

	_, err := sess.ProcessBatch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, 0, svc.processCnt)
}

func TestProcessBatch_AccountsForEveryFile(t *testing.T) {
	svc := &fakeService{
		processFn: func(name string) (*backend.ProcessResponse, error) {
			switch name {
			case "b.pdf":
				return nil, errors.New("backend boom")
			case "c.pdf":
				return &backend.ProcessResponse{Success: true, Results: []backend.ProcessResult{
					resultPage(map[string]any{"no_faktur": "010.000-25.00000001"}),
					resultPage(map[string]any{"no_faktur": "010.000-25.00000002"}),
				}}, nil
			default:
				return &backend.ProcessResponse{Success: true, Results: []backend.ProcessResult{
					resultPage(map[string]any{"no_faktur": "010.000-25.00000003"}),
				}}, nil
			}
		},
	}
	rec := &recorder{}
	sess := newTestSession(t, svc, rec)
	sess.SelectFiles(writeTempFiles(t, "a.pdf", "b.pdf", "c.pdf"))

	stats, err := sess.ProcessBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 3, stats.Pages)
	assert.Equal(t, stats.Files, stats.Succeeded+stats.Failed, "every file accounted for exactly once")

	// submission order is preserved, one request in flight at a time
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, svc.processed)

	items := sess.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "a.pdf", items[0].SourceFileName)
	assert.Equal(t, "c.pdf", items[1].SourceFileName)
	assert.Equal(t, "c.pdf", items[2].SourceFileName)

	// local ids are unique across the session
	seen := map[uuid.UUID]bool{}
	for _, it := range items {
		assert.False(t, seen[it.ID])
		seen[it.ID] = true
		assert.Equal(t, constants.SaveStateUnsaved, it.SaveState)
	}
}

func TestProcessBatch_OneFailureDoesNotAbortBatch(t *testing.T) {
	svc := &fakeService{
		processFn: func(name string) (*backend.ProcessResponse, error) {
			if name == "b.pdf" {
				return nil, errors.New("unreachable")
			}
			return &backend.ProcessResponse{Success: true, Results: []backend.ProcessResult{
				resultPage(map[string]any{"no_faktur": "010.000-25.00000001"}),
			}}, nil
		},
	}
	rec := &recorder{}
	sess := newTestSession(t, svc, rec)
	sess.SelectFiles(writeTempFiles(t, "a.pdf", "b.pdf"))

	_, err := sess.ProcessBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, sess.Items(), 1)
	failures := sess.Failures()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Path, "b.pdf")
	assert.Equal(t, 1, rec.containing("b.pdf"), "exactly one failure notification references the failed file")
}

func TestEditField_MutatesOnlyTargetItem(t *testing.T) {
	sess := newTestSession(t, &fakeService{}, &recorder{})
	items := seedItems(t, sess, 2)

	require.NoError(t, sess.EditField(items[0].ID, entity.FieldDPP, "1000000"))

	got, _ := sess.Item(items[0].ID)
	other, _ := sess.Item(items[1].ID)
	assert.Equal(t, "1000000", got.Field(entity.FieldDPP))
	assert.NotEqual(t, "1000000", other.Field(entity.FieldDPP))
}

func TestEditField_UnknownIDIsNoCrash(t *testing.T) {
	sess := newTestSession(t, &fakeService{}, &recorder{})
	err := sess.EditField(uuid.New(), entity.FieldDPP, "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestEditField_RejectedOnceSaved(t *testing.T) {
	svc := &fakeService{}
	sess := newTestSession(t, svc, &recorder{})
	items := seedItems(t, sess, 1)

	require.NoError(t, sess.SaveItem(context.Background(), items[0].ID))

	err := sess.EditField(items[0].ID, entity.FieldDPP, "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConflict)

	err = sess.SetClassification(items[0].ID, constants.OutputVAT)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestSaveItem_DoubleInvocationSendsOneRequest(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeService{saveGate: gate}
	sess := newTestSession(t, svc, &recorder{})
	items := seedItems(t, sess, 1)
	id := items[0].ID

	done := make(chan error, 1)
	go func() { done <- sess.SaveItem(context.Background(), id) }()

	require.Eventually(t, func() bool {
		it, _ := sess.Item(id)
		return it.SaveState == constants.SaveStateSaving
	}, time.Second, 5*time.Millisecond)

	// second call while the first is in flight: no second request
	require.NoError(t, sess.SaveItem(context.Background(), id))

	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, 1, svc.saveCount())
	it, _ := sess.Item(id)
	assert.Equal(t, constants.SaveStateSaved, it.SaveState)

	// saved is terminal: a third call is a no-op too
	require.NoError(t, sess.SaveItem(context.Background(), id))
	assert.Equal(t, 1, svc.saveCount())
}

func TestSaveItem_FailureLeavesItemEditableForRetry(t *testing.T) {
	svc := &fakeService{saveErr: errors.New("500 internal")}
	sess := newTestSession(t, svc, &recorder{})
	items := seedItems(t, sess, 1)
	id := items[0].ID

	err := sess.SaveItem(context.Background(), id)
	require.Error(t, err)

	it, _ := sess.Item(id)
	assert.Equal(t, constants.SaveStateErrored, it.SaveState)
	assert.NotEmpty(t, it.SaveError)

	// fields stay editable and a retry can succeed
	require.NoError(t, sess.EditField(id, entity.FieldPPN, "110000"))

	svc.mu.Lock()
	svc.saveErr = nil
	svc.mu.Unlock()
	require.NoError(t, sess.SaveItem(context.Background(), id))
	it, _ = sess.Item(id)
	assert.Equal(t, constants.SaveStateSaved, it.SaveState)
	assert.Empty(t, it.SaveError)
}

func TestSaveAll_ServerErrorLeavesAllUnsaved(t *testing.T) {
	svc := &fakeService{saveErr: errors.New("500 internal")}
	rec := &recorder{}
	sess := newTestSession(t, svc, rec)
	items := seedItems(t, sess, 3)

	err := sess.SaveAll(context.Background())
	require.Error(t, err)

	for _, it := range items {
		got, _ := sess.Item(it.ID)
		assert.Equal(t, constants.SaveStateUnsaved, got.SaveState, "no item may flip to saved on a failed batch")
	}
	assert.Equal(t, 1, rec.count(LevelError), "one session-level error notification")
	assert.Equal(t, 1, svc.saveCount())
}

func TestSaveAll_SubmitsOnlyUnsavedItems(t *testing.T) {
	svc := &fakeService{}
	sess := newTestSession(t, svc, &recorder{})
	items := seedItems(t, sess, 3)

	require.NoError(t, sess.SaveItem(context.Background(), items[0].ID))
	require.NoError(t, sess.SaveAll(context.Background()))

	require.Equal(t, 2, svc.saveCount())
	assert.Len(t, svc.saveBatches[1], 2, "already-saved items are excluded from the batch")

	for _, it := range items {
		got, _ := sess.Item(it.ID)
		assert.Equal(t, constants.SaveStateSaved, got.SaveState)
	}
}

func TestSaveAll_NothingToSave(t *testing.T) {
	svc := &fakeService{}
	sess := newTestSession(t, svc, &recorder{})

	require.NoError(t, sess.SaveAll(context.Background()))
	assert.Equal(t, 0, svc.saveCount())
}

func TestNavigate_ClampedAtBoundaries(t *testing.T) {
	sess := newTestSession(t, &fakeService{}, &recorder{})
	seedItems(t, sess, 3)

	assert.Equal(t, 0, sess.Navigate(-1), "back at index 0 is a no-op")
	assert.Equal(t, 1, sess.Navigate(+1))
	assert.Equal(t, 2, sess.Navigate(+1))
	assert.Equal(t, 2, sess.Navigate(+1), "next at the last index is a no-op")
	assert.Equal(t, 2, sess.CurrentIndex())
}

func TestReset_ThenEmptySelection(t *testing.T) {
	sess := newTestSession(t, &fakeService{}, &recorder{})
	seedItems(t, sess, 2)
	sess.Navigate(+1)

	sess.Reset()
	batch := sess.SelectFiles(nil)

	assert.True(t, batch.Empty())
	assert.Empty(t, sess.Items())
	assert.Equal(t, 0, sess.CurrentIndex())
	assert.Nil(t, sess.Current())
	assert.Empty(t, sess.Failures())
}

func TestAutoCalculateTax_OnlyOnExplicitRequest(t *testing.T) {
	sess := newTestSession(t, &fakeService{}, &recorder{})
	items := seedItems(t, sess, 1)
	id := items[0].ID

	require.NoError(t, sess.EditField(id, entity.FieldDPP, "1000000"))

	it, _ := sess.Item(id)
	assert.Equal(t, "121000", it.Field(entity.FieldPPN), "editing dpp must not touch ppn")

	require.NoError(t, sess.AutoCalculateTax(id))
	it, _ = sess.Item(id)
	assert.Equal(t, "110000", it.Field(entity.FieldPPN), "round(dpp * 0.11)")
}

func TestAutoCalculateTax_RequiresPositiveDPP(t *testing.T) {
	sess := newTestSession(t, &fakeService{}, &recorder{})
	items := seedItems(t, sess, 1)
	require.NoError(t, sess.EditField(items[0].ID, entity.FieldDPP, ""))

	err := sess.AutoCalculateTax(items[0].ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

// seedItems runs a one-file batch producing n pages through the session's
// own fake service and returns the items. The scripted process response is
// removed afterwards so it cannot leak into the calling test's assertions.
func seedItems(t *testing.T, sess *Session, n int) []*entity.ExtractionItem {
	t.Helper()
	svc, ok := sess.svc.(*fakeService)
	require.True(t, ok, "seedItems requires a fakeService-backed session")

	results := make([]backend.ProcessResult, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, resultPage(map[string]any{
			"no_faktur":            "010.000-25.0000000" + string(rune('1'+i)),
			"tanggal":              "2026-08-01",
			"nama_lawan_transaksi": "PT SUMBER REZEKI",
			"dpp":                  1100000.0,
			"ppn":                  121000.0,
		}))
	}

	svc.mu.Lock()
	svc.processFn = func(string) (*backend.ProcessResponse, error) {
		return &backend.ProcessResponse{Success: true, Results: results}, nil
	}
	svc.mu.Unlock()

	sess.SelectFiles(writeTempFiles(t, "seed.pdf"))
	_, err := sess.ProcessBatch(context.Background())
	require.NoError(t, err)

	svc.mu.Lock()
	svc.processFn = nil
	svc.mu.Unlock()

	items := sess.Items()
	require.Len(t, items, n)
	return items
}
