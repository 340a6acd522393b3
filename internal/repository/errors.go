// Package repository holds the MySQL data access of the service.  Every
// layout query is scoped by owner id; reservation queries by venue and slot.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup or an owner-scoped update matches no
// rows.  Handlers translate it into an HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique key, such as a seat
// already reserved for the same slot.  Handlers translate it into an HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by UserRepo.Create for a taken email.
var ErrEmailExists = errors.New("email already exists")

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
