package domain

import "time"

// Document is the stored metadata of one file inside a case directory.
// The file contents live on disk; only the path is recorded here.
type Document struct {
	ID          int64     `db:"id"`
	CaseID      int64     `db:"case_id"`
	DirectoryID int64     `db:"directory_id"`
	Name        string    `db:"file_name"`
	Path        string    `db:"file_path"`
	SizeBytes   int64     `db:"file_size"`
	UploadedAt  time.Time `db:"uploaded_at"`
}

// DocumentContent is a decoded document payload as held by the cache.
// The cache treats it as opaque; only the decoder knows how to build one.
type DocumentContent struct {
	DocumentID int64
	Data       []byte
	PageCount  int
	Title      string
}
