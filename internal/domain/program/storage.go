package program

// StagedUpload is a validated upload waiting in the staging area.
// Filename is the generated storage name and is kept when the file is attached.
type StagedUpload struct {
	Filename     string
	OriginalName string
	Size         int64
}

// DocumentStore owns the files behind Program.Documents.
type DocumentStore interface {
	// Attach moves staged files into the program directory and returns one
	// record per file. On error, files already moved are put back.
	Attach(programID string, staged []StagedUpload) ([]Document, error)
	// Restore moves attached files back to staging; used when the record could not be saved.
	Restore(programID string, docs []Document) error
	// Discard deletes whatever is still staged. Missing files are ignored.
	Discard(staged []StagedUpload)
	// Remove deletes one attached file. A missing file is not an error.
	Remove(programID, filename string) error
	// Purge deletes the whole program directory.
	Purge(programID string) error
}
