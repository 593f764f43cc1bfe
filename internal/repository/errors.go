package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrActiveYearExists signals a second activation attempt while another
// year is still ACTIVE.
var ErrActiveYearExists = errors.New("active academic year already exists")

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation. Services use it to collapse insert races that slip past an
// existence check into the same conflict answer the check would give.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
