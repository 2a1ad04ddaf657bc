package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validVolunteer() Volunteer {
	return Volunteer{
		Username:     "bob",
		FirstName:    "Bob",
		City:         "Sunnyvale",
		State:        "California",
		ZipCode:      "94089",
		Skills:       []string{"plumbing"},
		PhoneNumber:  "123-456-7890",
		Availability: []string{"Monday", "friday"},
		Consent:      true,
	}
}

func TestVolunteer_Validate(t *testing.T) {
	v := validVolunteer()
	assert.True(t, v.Validate())
}

func TestVolunteer_RejectsBlankAddress(t *testing.T) {
	v := validVolunteer()
	v.City = "  "
	assert.False(t, v.Validate())
}

func TestVolunteer_RejectsMalformedPhoneNumber(t *testing.T) {
	for _, phone := range []string{"1234567890", "123-45-67890", "abc-def-ghij", ""} {
		v := validVolunteer()
		v.PhoneNumber = phone
		assert.False(t, v.Validate(), "phone %q should be rejected", phone)
	}
}

func TestVolunteer_AvailabilityMustBeWeekdays(t *testing.T) {
	v := validVolunteer()
	v.Availability = []string{"monday", "someday"}
	assert.False(t, v.Validate())

	v.Availability = []string{}
	assert.False(t, v.Validate())

	// Case-insensitive weekday names are fine
	v.Availability = []string{"SUNDAY", "Wednesday"}
	assert.True(t, v.Validate())
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
	assert.Equal(t, "bob", NormalizeUsername("BOB"))
}
