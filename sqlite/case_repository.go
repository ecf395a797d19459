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

// CaseRepositorySQLite implements domain.CaseRepository on sqlite.
type CaseRepositorySQLite struct {
	db *sql.DB
}

// NewCaseRepository creates a new CaseRepositorySQLite.
func NewCaseRepository(db *sql.DB) domain.CaseRepository {
	return &CaseRepositorySQLite{db: db}
}

// GetCaseByID retrieves a case by id.
func (r *CaseRepositorySQLite) GetCaseByID(ctx context.Context, id int64) (*domain.Case, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, case_name, case_number, description, created_by, status, created_at, updated_at
		 FROM cases WHERE id = ?`, id)

	var c domain.Case
	err := row.Scan(&c.ID, &c.Name, &c.Number, &c.Description, &c.OwnerID,
		&c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ckerrors.ErrCaseNotFound
		}
		log.Error().Err(err).Int64("caseID", id).Msg("Error getting case by ID")
		return nil, fmt.Errorf("get case %d: %w", id, err)
	}
	return &c, nil
}

// ScopeForCase returns the case's documents in directory order, the
// working set the cache admits while this case is open.
func (r *CaseRepositorySQLite) ScopeForCase(ctx context.Context, caseID int64) (*domain.CaseScope, error) {
	c, err := r.GetCaseByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM case_files WHERE case_id = ?
		 ORDER BY directory_id, file_name`, caseID)
	if err != nil {
		log.Error().Err(err).Int64("caseID", caseID).Msg("Error listing case documents")
		return nil, fmt.Errorf("scope for case %d: %w", caseID, err)
	}
	defer rows.Close()

	scope := &domain.CaseScope{CaseID: c.ID, OwnerID: c.OwnerID}
	for rows.Next() {
		var docID int64
		if err := rows.Scan(&docID); err != nil {
			return nil, fmt.Errorf("scope for case %d: %w", caseID, err)
		}
		scope.DocumentIDs = append(scope.DocumentIDs, docID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scope for case %d: %w", caseID, err)
	}
	return scope, nil
}
