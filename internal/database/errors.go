package database

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY
// constraint.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsForeignKeyViolation reports whether err was caused by a FOREIGN KEY
// constraint. SQLite enforces ON DELETE RESTRICT through an internal trigger,
// so that case arrives as a trigger constraint carrying the foreign key message.
func IsForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return true
		case sqlite3.ErrConstraintTrigger:
			return strings.Contains(se.Error(), "FOREIGN KEY")
		}
		return false
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

// IsNotFound reports whether err is GORM's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
