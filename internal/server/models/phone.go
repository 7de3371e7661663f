package models

import "time"

type PhoneType string

const (
	PhoneTypeMobile PhoneType = "MOBILE"
	PhoneTypeHome   PhoneType = "HOME"
	PhoneTypeWork   PhoneType = "WORK"
)

// Valid reports whether t is one of the known phone types.
func (t PhoneType) Valid() bool {
	switch t {
	case PhoneTypeMobile, PhoneTypeHome, PhoneTypeWork:
		return true
	}
	return false
}

type Phone struct {
	ID        string
	UserID    string
	Number    string
	Type      PhoneType
	IsPrimary bool
	CreatedAt time.Time
}
