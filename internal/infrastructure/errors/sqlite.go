package errors

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// kv_entries only declares a composite primary key and NOT NULL columns, so
// those are the constraint failures a store write can hit.
var sqliteExtendedCodes = map[sqlite3.ErrNoExtended]ErrorCode{
	sqlite3.ErrConstraintPrimaryKey: ErrCodeDuplicate,
	sqlite3.ErrConstraintUnique:     ErrCodeDuplicate,
	sqlite3.ErrConstraintNotNull:    ErrCodeValidation,
}

var sqliteCodes = map[sqlite3.ErrNo]ErrorCode{
	sqlite3.ErrBusy:     ErrCodeBusy,
	sqlite3.ErrLocked:   ErrCodeBusy,
	sqlite3.ErrCantOpen: ErrCodeConnection,
	sqlite3.ErrIoErr:    ErrCodeConnection,
	sqlite3.ErrFull:     ErrCodeDiskSpace,
	sqlite3.ErrCorrupt:  ErrCodeCorruption,
	sqlite3.ErrNotADB:   ErrCodeCorruption,
	sqlite3.ErrPerm:     ErrCodePermission,
	sqlite3.ErrAuth:     ErrCodePermission,
	sqlite3.ErrReadonly: ErrCodePermission,
	sqlite3.ErrSchema:   ErrCodeSchema,
	// statement used after finalize, a bug rather than a transient failure
	sqlite3.ErrMisuse: ErrCodeInternal,
}

// classifySQLiteError maps a sqlite3.Error raised against the kv_entries
// store to an ErrorCode. Anything else is ErrCodeUnknown.
func classifySQLiteError(err error) ErrorCode {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return ErrCodeUnknown
	}

	if code, ok := sqliteExtendedCodes[sqliteErr.ExtendedCode]; ok {
		return code
	}
	if code, ok := sqliteCodes[sqliteErr.Code]; ok {
		return code
	}

	switch sqliteErr.Code {
	case sqlite3.ErrConstraint:
		return ErrCodeConstraint
	case sqlite3.ErrError:
		// kv_entries missing or altered: migrations did not run
		msg := strings.ToLower(sqliteErr.Error())
		if strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column") {
			return ErrCodeSchema
		}
	}
	return ErrCodeUnknown
}
