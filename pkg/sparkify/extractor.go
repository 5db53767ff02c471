package sparkify

import "context"

// DataFile identifies one discovered input file.
type DataFile struct {
	Path         string // absolute path, used to read the content
	RelativePath string // path relative to the phase root, used in logs
	SizeBytes    int64
}

// FileResult counts the rows an extractor handed to the sink for one file.
type FileResult struct {
	Songs        int
	Artists      int
	Events       int // every event in the file, plays or not
	TimeRows     int
	UserRows     int
	Songplays    int
	LookupHits   int
	LookupMisses int
}

// Add accumulates another file's counts.
func (r *FileResult) Add(other FileResult) {
	r.Songs += other.Songs
	r.Artists += other.Artists
	r.Events += other.Events
	r.TimeRows += other.TimeRows
	r.UserRows += other.UserRows
	r.Songplays += other.Songplays
	r.LookupHits += other.LookupHits
	r.LookupMisses += other.LookupMisses
}

// Extractor turns the content of one file into sink operations.
// Extract must not commit; the batch driver owns the unit of work.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, sink Sink, file DataFile, content []byte) (FileResult, error)
}

// FileScanner discovers input files under a root directory.
type FileScanner interface {
	Scan(root string) ([]DataFile, error)
	ReadFile(path string) ([]byte, error)
}
