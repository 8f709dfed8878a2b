package order

import (
	"time"

	"github.com/google/uuid"
)

// DefaultProfileType is the profile type used for marketplace customers
const DefaultProfileType = "customer"

// Address holds the address fields of a profile. Remote addresses carry up
// to three address lines which are collapsed into the two lines supported
// here.
type Address struct {
	// CountryCode is the two-letter country code
	CountryCode string `gorm:"type:varchar(2)"`
	// AdministrativeArea is the state, province or region
	AdministrativeArea string `gorm:"type:varchar(100)"`
	// Locality is the city
	Locality string `gorm:"type:varchar(100)"`
	// PostalCode is the postal code
	PostalCode string `gorm:"type:varchar(20)"`
	// AddressLine1 is the first address line
	AddressLine1 string `gorm:"type:varchar(200)"`
	// AddressLine2 is the second address line
	AddressLine2 string `gorm:"type:varchar(200)"`
}

// Name holds the name fields of a profile
type Name struct {
	// GivenName is the given name; empty when the source name had a single
	// token
	GivenName string `gorm:"type:varchar(100)"`
	// FamilyName is the family name
	FamilyName string `gorm:"type:varchar(100)"`
}

// Profile is an address and name container attached to an order as billing
// or shipping information. Profiles are created during import and deleted
// together with their order during purge.
type Profile struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`
	// Type is the profile type
	Type string `gorm:"type:varchar(32);not null"`
	// OwnerID is the actor owning the profile; uuid.Nil is the system actor
	// that marketplace orders are assigned to
	OwnerID uuid.UUID `gorm:"type:uuid;not null"`

	Address Address `gorm:"embedded"`
	Name    Name    `gorm:"embedded"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for profiles
func (Profile) TableName() string {
	return "profiles"
}
