package domain

import "time"

// CaseStatus defines the lifecycle state of a case file.
type CaseStatus string

const (
	CaseStatusActive   CaseStatus = "ACTIVE"
	CaseStatusArchived CaseStatus = "ARCHIVED"
)

// Case is a case file (dossier) owned by a single user.
type Case struct {
	ID          int64      `db:"id"`
	Name        string     `db:"case_name"`
	Number      string     `db:"case_number"`
	Description string     `db:"description"`
	OwnerID     int64      `db:"created_by"`
	Status      CaseStatus `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// CaseScope is the working set of the document cache: the documents
// belonging to the case currently open in the UI. Exactly one scope is
// open per application instance at a time.
type CaseScope struct {
	CaseID      int64
	OwnerID     int64
	DocumentIDs []int64 // directory order
}

// Contains reports whether the document belongs to the scope.
func (s *CaseScope) Contains(documentID int64) bool {
	for _, id := range s.DocumentIDs {
		if id == documentID {
			return true
		}
	}
	return false
}
