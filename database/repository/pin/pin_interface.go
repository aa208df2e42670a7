package pinRepo

import (
	"errors"
	"time"

	"academix/models"
)

// ErrDuplicatePin is returned by Create when a record already exists for the
// owner. Two first-time setups racing each other surface this on the loser;
// callers retry as an update.
var ErrDuplicatePin = errors.New("pin record already exists for owner")

// ErrPinNotFound is returned by Update and Disable when no record exists for
// the owner.
var ErrPinNotFound = errors.New("pin record not found for owner")

// PinRepository defines data access for PIN credentials. All writes go
// through the elevated connection; reads use ordinary credentials so the
// session gate can probe without privilege.
type PinRepository interface {
	// FindByOwner retrieves the record for an owner. Absence is a valid,
	// common state and returns (nil, nil), never an error.
	FindByOwner(ownerID string) (*models.PinRecord, error)
	// Create inserts a new record with is_active=true. Returns
	// ErrDuplicatePin when one already exists.
	Create(ownerID, encodedSecret string) (*models.PinRecord, error)
	// Update replaces the encoded secret and re-enables the record.
	// Returns ErrPinNotFound when no record exists.
	Update(ownerID, encodedSecret string) (*models.PinRecord, error)
	// Disable flips is_active off without deleting the record.
	Disable(ownerID string) error
	// DeleteDisabledBefore hard-deletes records disabled since before the
	// cutoff. Used only by the maintenance sweep, never on a request path.
	DeleteDisabledBefore(cutoff time.Time) (int64, error)
}
