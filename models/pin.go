package models

import "time"

// PinRecord is the stored PIN credential for a single principal. At most one
// record exists per owner; removal is logical (IsActive=false), never a hard
// delete on the request path.
type PinRecord struct {
	OwnerID       string    `bson:"owner_id" json:"owner_id"`
	EncodedSecret string    `bson:"encoded_secret" json:"-"`
	IsActive      bool      `bson:"is_active" json:"is_active"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// PinStatus is the read-only projection returned to the UI. It never carries
// the encoded secret.
type PinStatus struct {
	HasPin     bool       `json:"has_pin"`
	PinEnabled bool       `json:"pin_enabled"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}
