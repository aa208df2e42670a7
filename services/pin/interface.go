package pin

import "academix/models"

// PinService defines business logic for the secondary-factor PIN layer.
type PinService interface {
	// SetPin creates or rotates the owner's PIN. Returns ValidationError on
	// malformed input and database.ErrAdminCredentialMissing when the
	// elevated write path is unavailable.
	SetPin(ownerID, rawPin string) error
	// Verify checks a raw PIN against the stored record. An absent or
	// disabled record verifies false without a distinguishable reason, so
	// callers cannot enumerate who has a PIN configured.
	Verify(ownerID, rawPin string) (bool, error)
	// HasActivePin reports whether the owner has an enabled PIN. Absence is
	// not an error.
	HasActivePin(ownerID string) (bool, error)
	// Status returns the read-only projection for the UI.
	Status(ownerID string) (*models.PinStatus, error)
	// DisablePin logically removes the owner's PIN without deleting the
	// record.
	DisablePin(ownerID string) error
}
