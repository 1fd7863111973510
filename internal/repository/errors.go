package repository

import (
	"booknet/internal/domain" // Domain errors
	"errors"                  // Error inspection
	"strings"                 // Driver message matching

	"github.com/go-sql-driver/mysql" // MySQL error numbers
	"gorm.io/gorm"                   // GORM sentinels
)

const mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY

// isDuplicateKey reports a unique index violation from any supported driver
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true // Translated by the dialector
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true // Raw MySQL error
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") // SQLite
}

// notFound maps gorm.ErrRecordNotFound to domain.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
