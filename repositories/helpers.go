package repositories

import (
	"database/sql"
	"fmt"
)

// Коды ошибок PostgreSQL, используемые при маппинге конфликтов.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}
