package models

// FileDescriptor identifies one discovered input file.
type FileDescriptor struct {
	Path      string
	Folder    string
	Extension string
}

// FolderState is the lifecycle position of a folder within one run.
type FolderState string

const (
	StateDiscovered   FolderState = "discovered"
	StateProvisioning FolderState = "provisioning"
	StateExtracting   FolderState = "extracting"
	StateSubmitting   FolderState = "submitting"
	StateReported     FolderState = "reported"
)

var stateOrder = map[FolderState]int{
	StateDiscovered:   0,
	StateProvisioning: 1,
	StateExtracting:   2,
	StateSubmitting:   3,
	StateReported:     4,
}

// FolderStats are the per-folder counters reported at the end of a run.
type FolderStats struct {
	FilesProcessed int `json:"files_processed" csv:"files_processed"`
	FilesSucceeded int `json:"files_succeeded" csv:"files_succeeded"`
	FilesErrored   int `json:"files_errored" csv:"files_errored"`
	RowsExtracted  int `json:"rows_extracted" csv:"rows_extracted"`
	RowsFailed     int `json:"rows_failed" csv:"rows_failed"`
	Accepted       int `json:"accepted" csv:"accepted"`
	Rejected       int `json:"rejected" csv:"rejected"`
	Duplicates     int `json:"duplicates" csv:"duplicates"`
}

// Add accumulates other into s.
func (s *FolderStats) Add(other FolderStats) {
	s.FilesProcessed += other.FilesProcessed
	s.FilesSucceeded += other.FilesSucceeded
	s.FilesErrored += other.FilesErrored
	s.RowsExtracted += other.RowsExtracted
	s.RowsFailed += other.RowsFailed
	s.Accepted += other.Accepted
	s.Rejected += other.Rejected
	s.Duplicates += other.Duplicates
}

// FolderBatch carries one organization folder through the pipeline.
type FolderBatch struct {
	Folder   string
	Files    []FileDescriptor
	Identity Identity
	Resolved bool
	Records  []Transaction
	Stats    FolderStats
	State    FolderState
	Outcome  SubmissionOutcome
}

// NewFolderBatch returns a batch in the discovered state.
func NewFolderBatch(folder string, files []FileDescriptor) *FolderBatch {
	return &FolderBatch{Folder: folder, Files: files, State: StateDiscovered}
}

// Advance moves the batch forward. Moving backward is refused.
func (b *FolderBatch) Advance(next FolderState) bool {
	if stateOrder[next] < stateOrder[b.State] {
		return false
	}
	b.State = next
	return true
}
