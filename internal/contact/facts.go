package contact

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// FactsSource looks up existing CRM attributes for a contact. Unknown
// contacts yield zero Facts, not an error: segmentation treats them as new.
type FactsSource interface {
	Facts(ctx context.Context, workspaceID, contactID string) (Facts, error)
}

// PostgresFacts reads the contacts table maintained by the CRM.
type PostgresFacts struct {
	DB *sql.DB
}

func NewPostgresFacts(db *sql.DB) *PostgresFacts { return &PostgresFacts{DB: db} }

func (r *PostgresFacts) Facts(ctx context.Context, workspaceID, contactID string) (Facts, error) {
	const q = `
SELECT client_since, COALESCE(debt_amount_minor, 0), COALESCE(status, '')
FROM contacts
WHERE workspace_id = $1 AND id = $2
`
	var f Facts
	var since sql.NullTime
	err := r.DB.QueryRowContext(ctx, q, workspaceID, contactID).Scan(&since, &f.DebtAmountMinor, &f.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Facts{}, nil
	}
	if err != nil {
		return Facts{}, err
	}
	if since.Valid {
		t := since.Time
		f.ClientSince = &t
	}
	return f, nil
}

// MemoryFacts is a fixed contact -> facts map for tests.
type MemoryFacts struct {
	mu    sync.Mutex
	facts map[string]Facts // key: workspace_id|contact_id
}

func NewMemoryFacts() *MemoryFacts { return &MemoryFacts{facts: map[string]Facts{}} }

func (r *MemoryFacts) Put(workspaceID, contactID string, f Facts) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facts[workspaceID+"|"+contactID] = f
}

func (r *MemoryFacts) Facts(ctx context.Context, workspaceID, contactID string) (Facts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.facts[workspaceID+"|"+contactID], nil
}
