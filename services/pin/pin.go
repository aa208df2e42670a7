package pin

import (
	"errors"
	"fmt"
	"regexp"

	pinRepo "academix/database/repository/pin"
	"academix/models"
)

var pinFormat = regexp.MustCompile(`^\d{4,6}$`)

// DefaultPinService is the production implementation.
type DefaultPinService struct {
	Repo   pinRepo.PinRepository
	Hasher PinHasher
}

// SetPin validates, encodes and stores the owner's PIN. The existence check
// followed by create-or-update is not atomic; the unique index on owner_id
// makes the losing side of a concurrent first-time setup fail with
// ErrDuplicatePin, which is retried here as an update so both callers
// converge on a single record.
func (s *DefaultPinService) SetPin(ownerID, rawPin string) error {
	if !pinFormat.MatchString(rawPin) {
		return ValidationError{Reason: "pin must be 4 to 6 digits"}
	}

	encoded, err := s.Hasher.Encode(rawPin)
	if err != nil {
		return fmt.Errorf("failed to encode pin: %w", err)
	}

	existing, err := s.Repo.FindByOwner(ownerID)
	if err != nil {
		return fmt.Errorf("failed to check for existing pin: %w", err)
	}

	if existing != nil {
		if _, err := s.Repo.Update(ownerID, encoded); err != nil {
			return fmt.Errorf("failed to rotate pin: %w", err)
		}
		return nil
	}

	_, err = s.Repo.Create(ownerID, encoded)
	if errors.Is(err, pinRepo.ErrDuplicatePin) {
		// Lost the first-time setup race; the other writer created the
		// record between our check and insert.
		if _, err := s.Repo.Update(ownerID, encoded); err != nil {
			return fmt.Errorf("failed to rotate pin after create conflict: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create pin: %w", err)
	}
	return nil
}

// Verify compares a raw PIN against the stored record.
func (s *DefaultPinService) Verify(ownerID, rawPin string) (bool, error) {
	rec, err := s.Repo.FindByOwner(ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to load pin record: %w", err)
	}
	if rec == nil || !rec.IsActive {
		return false, nil
	}
	return s.Hasher.Compare(rec.EncodedSecret, rawPin), nil
}

// HasActivePin reports whether the owner has an enabled PIN configured.
func (s *DefaultPinService) HasActivePin(ownerID string) (bool, error) {
	rec, err := s.Repo.FindByOwner(ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to probe pin record: %w", err)
	}
	return rec != nil && rec.IsActive, nil
}

// Status returns the UI projection for the owner's PIN.
func (s *DefaultPinService) Status(ownerID string) (*models.PinStatus, error) {
	rec, err := s.Repo.FindByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pin status: %w", err)
	}
	if rec == nil {
		return &models.PinStatus{HasPin: false, PinEnabled: false}, nil
	}
	return &models.PinStatus{
		HasPin:     true,
		PinEnabled: rec.IsActive,
		CreatedAt:  &rec.CreatedAt,
		UpdatedAt:  &rec.UpdatedAt,
	}, nil
}

// DisablePin logically removes the owner's PIN.
func (s *DefaultPinService) DisablePin(ownerID string) error {
	if err := s.Repo.Disable(ownerID); err != nil {
		return fmt.Errorf("failed to disable pin: %w", err)
	}
	return nil
}
