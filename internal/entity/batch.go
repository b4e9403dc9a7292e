package entity

// RejectedFile records a file excluded by advisory client-side validation.
// Rejections are reported to the user, never silently dropped.
type RejectedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// UploadBatch is the ordered set of files selected for processing. It is
// immutable once processing starts and replaced wholesale on new selection.
type UploadBatch struct {
	Accepted []string       `json:"accepted"`
	Rejected []RejectedFile `json:"rejected"`
}

// Empty reports whether the batch has no accepted files.
func (b *UploadBatch) Empty() bool {
	return b == nil || len(b.Accepted) == 0
}

// FileFailure records a per-file processing failure during a batch run.
// One file's failure never aborts the batch.
type FileFailure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// BatchStats aggregates the outcome of one ProcessBatch run. For a batch of
// N accepted files, Succeeded+Failed == N once the run settles.
type BatchStats struct {
	Files     int `json:"files"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Pages     int `json:"pages"`
}
