package models

import (
	"regexp"
	"strings"
	"time"
)

var (
	phonePattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)

	weekdayNames = map[string]struct{}{
		"sunday": {}, "monday": {}, "tuesday": {}, "wednesday": {},
		"thursday": {}, "friday": {}, "saturday": {},
	}
)

// Volunteer is a user's volunteer profile: where they are, what they can
// do, and when they are available. Consent gates SMS notifications.
type Volunteer struct {
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	ZipCode      string    `json:"zip_code"`
	Skills       []string  `json:"skills"`
	PhoneNumber  string    `json:"phone_number"`
	Availability []string  `json:"availability"`
	Consent      bool      `json:"consent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (v *Volunteer) HasValidAddress() bool {
	return strings.TrimSpace(v.City) != "" &&
		strings.TrimSpace(v.State) != "" &&
		strings.TrimSpace(v.ZipCode) != ""
}

func (v *Volunteer) HasValidPhoneNumber() bool {
	return phonePattern.MatchString(v.PhoneNumber)
}

func (v *Volunteer) HasValidAvailability() bool {
	if len(v.Availability) == 0 || len(v.Availability) > 7 {
		return false
	}
	for _, day := range v.Availability {
		if _, ok := weekdayNames[strings.ToLower(day)]; !ok {
			return false
		}
	}
	return true
}

func (v *Volunteer) Validate() bool {
	return v.HasValidAddress() && v.HasValidPhoneNumber() && v.HasValidAvailability()
}
