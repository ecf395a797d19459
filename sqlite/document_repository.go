package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"go.pilab.hu/casekit/domain"
	ckerrors "go.pilab.hu/casekit/errors"
)

// DocumentRepositorySQLite implements domain.DocumentRepository on sqlite.
type DocumentRepositorySQLite struct {
	db *sql.DB
}

// NewDocumentRepository creates a new DocumentRepositorySQLite.
func NewDocumentRepository(db *sql.DB) domain.DocumentRepository {
	return &DocumentRepositorySQLite{db: db}
}

const documentColumns = `id, case_id, directory_id, file_name, file_path, file_size, uploaded_at`

// GetDocumentByID retrieves one stored document's metadata.
func (r *DocumentRepositorySQLite) GetDocumentByID(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM case_files WHERE id = ?`, id)

	var d domain.Document
	err := row.Scan(&d.ID, &d.CaseID, &d.DirectoryID, &d.Name, &d.Path, &d.SizeBytes, &d.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ckerrors.ErrDocumentNotFound
		}
		log.Error().Err(err).Int64("documentID", id).Msg("Error getting document by ID")
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}
	return &d, nil
}

// ListDocumentsByCase returns a case's documents in directory order.
func (r *DocumentRepositorySQLite) ListDocumentsByCase(ctx context.Context, caseID int64) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM case_files WHERE case_id = ?
		 ORDER BY directory_id, file_name`, caseID)
	if err != nil {
		log.Error().Err(err).Int64("caseID", caseID).Msg("Error listing documents by case")
		return nil, fmt.Errorf("list documents for case %d: %w", caseID, err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.CaseID, &d.DirectoryID, &d.Name, &d.Path, &d.SizeBytes, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("list documents for case %d: %w", caseID, err)
		}
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents for case %d: %w", caseID, err)
	}
	return docs, nil
}
