package channel

import (
	"database/sql"

	"github.com/gin-gonic/gin"
)

// NewPostgresWorkspaceResolver maps a dialed number to its workspace via the
// channel_numbers table. Unknown numbers return sql.ErrNoRows, which the
// webhook handlers turn into a 404.
func NewPostgresWorkspaceResolver(db *sql.DB) WorkspaceResolver {
	return func(c *gin.Context, toNumber string) (string, error) {
		const q = `
SELECT workspace_id
FROM channel_numbers
WHERE number = $1
`
		var workspaceID string
		if err := db.QueryRowContext(c.Request.Context(), q, toNumber).Scan(&workspaceID); err != nil {
			return "", err
		}
		return workspaceID, nil
	}
}
