package repositories

import "github.com/BradenHooton/tripshare/internal/models"

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// summaryColumns selects the public user projection from the users table aliased as alias
func summaryColumns(alias string) string {
	return alias + ".id, " + alias + ".email, " + alias + ".username, " +
		alias + ".first_name, " + alias + ".last_name, " +
		alias + ".created_at, " + alias + ".updated_at"
}

// summaryDest returns scan destinations matching summaryColumns
func summaryDest(s *models.UserSummary) []interface{} {
	return []interface{}{
		&s.ID, &s.Email, &s.Username, &s.FirstName, &s.LastName, &s.CreatedAt, &s.UpdatedAt,
	}
}
