package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/prasetyadi/faktur-review/constants"
	"github.com/prasetyadi/faktur-review/internal/backend"
	"github.com/prasetyadi/faktur-review/internal/common"
	"github.com/prasetyadi/faktur-review/internal/entity"
)

// Store mirrors session items to local storage, best effort. The in-memory
// session is always authoritative; a Store failure never fails the caller.
type Store interface {
	SaveSnapshot(items []*entity.ExtractionItem) error
	LoadSnapshot() ([]*entity.ExtractionItem, error)
	Clear() error
}

// Options configures optional session collaborators.
type Options struct {
	CompanyName string
	Notifier    Notifier
	Store       Store
	Logger      *slog.Logger
}

// Session owns the batch-upload -> per-item edit -> per-item save lifecycle.
// All state transitions go through its methods; child views get read/write
// capability by holding the Session, never by sharing globals.
type Session struct {
	mu sync.Mutex

	domain      constants.Domain
	companyName string

	batch        *entity.UploadBatch
	items        []*entity.ExtractionItem
	byID         map[uuid.UUID]*entity.ExtractionItem
	currentIndex int
	failures     []entity.FileFailure
	processing   bool

	svc      backend.Service
	notifier Notifier
	store    Store
	logger   *slog.Logger
}

// New builds a review session for one processing domain.
func New(domain constants.Domain, svc backend.Service, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &Session{
		domain:      domain,
		companyName: opts.CompanyName,
		byID:        make(map[uuid.UUID]*entity.ExtractionItem),
		svc:         svc,
		notifier:    notifier,
		store:       opts.Store,
		logger:      logger,
	}
}

// SetCompanyName sets the contextual company name the backend uses for
// input/output VAT classification.
func (s *Session) SetCompanyName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companyName = name
}

// SelectFiles replaces the upload batch and clears any prior review state.
// File-type and size checks are advisory: rejected files are reported and
// excluded from submission, never silently dropped.
func (s *Session) SelectFiles(paths []string) *entity.UploadBatch {
	batch := &entity.UploadBatch{}
	for _, p := range paths {
		if reason := checkFile(p); reason != "" {
			batch.Rejected = append(batch.Rejected, entity.RejectedFile{Path: p, Reason: reason})
			s.notifier.Notify(LevelWarn, fmt.Sprintf("%s dilewati: %s", filepath.Base(p), reason))
			continue
		}
		batch.Accepted = append(batch.Accepted, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = batch
	s.clearReviewStateLocked()
	return batch
}

func checkFile(path string) string {
	if !constants.IsAllowedExt(filepath.Ext(path)) {
		return "format salah, gunakan PDF, JPG, atau PNG"
	}
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("tidak dapat dibaca: %v", err)
	}
	if st.IsDir() {
		return "bukan file"
	}
	if st.Size() > constants.MaxUploadBytes {
		return "ukuran file melebihi 10MB"
	}
	return ""
}

func (s *Session) clearReviewStateLocked() {
	s.items = nil
	s.byID = make(map[uuid.UUID]*entity.ExtractionItem)
	s.currentIndex = 0
	s.failures = nil
}

// RestoreSnapshot merges cached items back into an empty session. Only the
// result list is reconstructed; file handles are never restored and must be
// re-selected. Items caught mid-save by a previous shutdown come back as
// errored so no item is ever observed in SAVING without a request in flight.
func (s *Session) RestoreSnapshot() int {
	if s.store == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) > 0 {
		return 0
	}
	cached, err := s.store.LoadSnapshot()
	if err != nil {
		s.logger.Warn("session.cache.load_error", "error", err)
		return 0
	}
	for _, it := range cached {
		if it.SaveState == constants.SaveStateSaving {
			it.SaveState = constants.SaveStateErrored
			it.SaveError = "sesi terputus saat menyimpan"
		}
		s.items = append(s.items, it)
		s.byID[it.ID] = it
	}
	return len(cached)
}

// ProcessBatch submits each accepted file to the extraction endpoint, in
// input order, one request in flight at a time. A per-file failure is
// recorded and processing continues with the next file.
func (s *Session) ProcessBatch(ctx context.Context) (entity.BatchStats, error) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return entity.BatchStats{}, common.NewAppError("BATCH_BUSY", "batch already processing", common.ErrConflict)
	}
	if s.batch.Empty() {
		s.mu.Unlock()
		return entity.BatchStats{}, common.ValidationErrorf("pilih file terlebih dahulu")
	}
	if s.domain == constants.DomainFaktur && s.companyName == "" {
		s.mu.Unlock()
		return entity.BatchStats{}, common.ValidationErrorf("nama PT utama wajib diisi")
	}
	files := append([]string(nil), s.batch.Accepted...)
	company := s.companyName
	s.processing = true
	s.clearReviewStateLocked()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	stats := entity.BatchStats{Files: len(files)}
	s.notifier.Notify(LevelInfo, fmt.Sprintf("Mulai memproses %d file...", len(files)))

	for _, path := range files {
		resp, err := s.svc.Process(ctx, s.domain, path, company)
		if err != nil {
			stats.Failed++
			s.recordFailure(path, err)
			continue
		}

		name := filepath.Base(path)
		pages := make([]*entity.ExtractionItem, 0, len(resp.Results))
		for _, res := range resp.Results {
			classification, _ := constants.CanonicalizeClassification(res.Klasifikasi)
			item := entity.NewExtractionItem(name, classification, res.StringFields())
			item.PreviewRef = res.PreviewFilename
			item.PageNo = res.Halaman
			pages = append(pages, item)
		}

		s.mu.Lock()
		for _, item := range pages {
			s.items = append(s.items, item)
			s.byID[item.ID] = item
		}
		s.mu.Unlock()

		stats.Succeeded++
		stats.Pages += len(pages)
		s.logger.Info("session.process.file_ok", "file", name, "pages", len(pages))
	}

	s.mirror()
	s.notifier.Notify(LevelSuccess, fmt.Sprintf(
		"Proses selesai: %d berhasil, %d gagal, %d halaman.", stats.Succeeded, stats.Failed, stats.Pages))
	return stats, nil
}

func (s *Session) recordFailure(path string, err error) {
	s.mu.Lock()
	s.failures = append(s.failures, entity.FileFailure{Path: path, Err: err.Error()})
	s.mu.Unlock()
	s.notifier.Notify(LevelError, fmt.Sprintf("Gagal memproses %s: %v", filepath.Base(path), err))
}

// EditField mutates one field on one item, locally. Items already saved or
// mid-save reject edits.
func (s *Session) EditField(id uuid.UUID, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.editableLocked(id)
	if err != nil {
		return err
	}
	item.Fields[field] = value
	s.mirrorLocked()
	return nil
}

// SetClassification mutates one item's classification tag, locally.
func (s *Session) SetClassification(id uuid.UUID, c constants.Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.editableLocked(id)
	if err != nil {
		return err
	}
	item.Classification = c
	s.mirrorLocked()
	return nil
}

// AutoCalculateTax sets ppn to round(dpp * 11%). It only runs when invoked
// explicitly; editing dpp never touches ppn by itself.
func (s *Session) AutoCalculateTax(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.editableLocked(id)
	if err != nil {
		return err
	}
	ppn, ok := item.ExpectedPPN()
	if !ok {
		return common.ValidationErrorf("dpp harus lebih dari 0")
	}
	item.Fields[entity.FieldPPN] = entity.FormatAmount(ppn)
	s.mirrorLocked()
	return nil
}

func (s *Session) editableLocked(id uuid.UUID) (*entity.ExtractionItem, error) {
	item, ok := s.byID[id]
	if !ok {
		return nil, common.NewAppError("ITEM_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	switch {
	case item.SaveState.Terminal():
		return nil, common.NewAppError("ITEM_SAVED", "item already saved", common.ErrConflict)
	case item.SaveState == constants.SaveStateSaving:
		return nil, common.NewAppError("ITEM_SAVING", "save in flight", common.ErrConflict)
	}
	return item, nil
}

// SaveItem persists one item. A second call while the first is still in
// flight returns immediately without issuing another request. Saves of
// different items may run concurrently.
func (s *Session) SaveItem(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	item, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return common.NewAppError("ITEM_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	if !item.SaveState.CanTransitionTo(constants.SaveStateSaving) {
		s.mu.Unlock()
		return nil
	}
	item.SaveState = constants.SaveStateSaving
	item.SaveError = ""
	payload := backend.SaveItem{Klasifikasi: item.Classification, Data: cloneFields(item.Fields)}
	s.mu.Unlock()

	msg, err := s.svc.Save(ctx, []backend.SaveItem{payload})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		item.SaveState = constants.SaveStateErrored
		item.SaveError = err.Error()
		s.mirrorLocked()
		s.notifier.Notify(LevelError, fmt.Sprintf("Gagal menyimpan %s: %v", item.SourceFileName, err))
		return err
	}
	item.SaveState = constants.SaveStateSaved
	s.mirrorLocked()
	if msg == "" {
		msg = "Data berhasil disimpan."
	}
	s.notifier.Notify(LevelSuccess, msg)
	return nil
}

// SaveAll submits every item not yet saved as one batched request. The batch
// is all-or-nothing: on success every included item becomes saved, on failure
// every included item keeps the state it had before the call and one
// session-level error notification is emitted.
func (s *Session) SaveAll(ctx context.Context) error {
	s.mu.Lock()
	var included []*entity.ExtractionItem
	var payload []backend.SaveItem
	prior := make(map[uuid.UUID]struct {
		state constants.SaveState
		msg   string
	})
	for _, item := range s.items {
		if !item.SaveState.CanTransitionTo(constants.SaveStateSaving) {
			continue
		}
		prior[item.ID] = struct {
			state constants.SaveState
			msg   string
		}{item.SaveState, item.SaveError}
		item.SaveState = constants.SaveStateSaving
		item.SaveError = ""
		included = append(included, item)
		payload = append(payload, backend.SaveItem{Klasifikasi: item.Classification, Data: cloneFields(item.Fields)})
	}
	s.mu.Unlock()

	if len(included) == 0 {
		s.notifier.Notify(LevelInfo, "Tidak ada data yang perlu disimpan.")
		return nil
	}

	msg, err := s.svc.Save(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		for _, item := range included {
			p := prior[item.ID]
			item.SaveState = p.state
			item.SaveError = p.msg
		}
		s.mirrorLocked()
		s.notifier.Notify(LevelError, fmt.Sprintf("Gagal menyimpan semua data: %v", err))
		return err
	}
	for _, item := range included {
		item.SaveState = constants.SaveStateSaved
	}
	s.mirrorLocked()
	if msg == "" {
		msg = fmt.Sprintf("Berhasil menyimpan %d data.", len(included))
	}
	s.notifier.Notify(LevelSuccess, msg)
	return nil
}

// Navigate moves the review cursor by delta, clamped to the item range.
// Boundary moves are no-ops.
func (s *Session) Navigate(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.currentIndex + delta
	if next < 0 || next >= len(s.items) {
		return s.currentIndex
	}
	s.currentIndex = next
	return s.currentIndex
}

// Current returns the item under the cursor, or nil for an empty session.
func (s *Session) Current() *entity.ExtractionItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil
	}
	return s.items[s.currentIndex]
}

// CurrentIndex returns the cursor position.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// Items returns the ordered item list. The slice is a copy; the items are
// the live session objects.
func (s *Session) Items() []*entity.ExtractionItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.ExtractionItem(nil), s.items...)
}

// Item looks up one item by its local id.
func (s *Session) Item(id uuid.UUID) (*entity.ExtractionItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.byID[id]
	return item, ok
}

// Failures returns the per-file failures from the last batch run.
func (s *Session) Failures() []entity.FileFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.FileFailure(nil), s.failures...)
}

// Batch returns the current upload batch.
func (s *Session) Batch() *entity.UploadBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch
}

// Reset clears the batch, items, cursor, failures and the cache mirror.
func (s *Session) Reset() {
	s.mu.Lock()
	s.batch = nil
	s.clearReviewStateLocked()
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			s.logger.Warn("session.cache.clear_error", "error", err)
		}
	}
}

func (s *Session) mirror() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrorLocked()
}

func (s *Session) mirrorLocked() {
	if s.store == nil {
		return
	}
	snapshot := make([]*entity.ExtractionItem, len(s.items))
	for i, it := range s.items {
		snapshot[i] = it.Clone()
	}
	if err := s.store.SaveSnapshot(snapshot); err != nil {
		s.logger.Warn("session.cache.save_error", "error", err)
	}
}

func cloneFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
