package service

import (
	"fmt"
	"strings"
	"time"

	"loyalty-gateway/internal/profile/models"
	"loyalty-gateway/internal/registry"
)

// customerGroupID is the single fixed classification assigned to every
// customer this integration creates, regardless of input.
const customerGroupID = "ef48161a-02a7-4042-8091-40717d7421ff"

// birthdayLayouts are the accepted input formats for the birthday field.
var birthdayLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Normalize converts a raw form profile into the registry's payload schema.
// It is a pure transformation: names are split, enums mapped, the address
// sub-object assembled only when populated, and blank optional fields left
// out entirely since the registry rejects empty strings.
func Normalize(p models.Profile) registry.CustomerPayload {
	firstname, lastname := splitName(p.Name)

	payload := registry.CustomerPayload{
		Firstname:                 firstname,
		Lastname:                  lastname,
		Email:                     p.Email,
		Phone:                     p.Phone,
		Gender:                    normalizeGender(p.Gender),
		CustomerGroup:             &registry.GroupRef{ID: customerGroupID},
		Active:                    registry.Bool(true),
		PrivacyPolicyAccepted:     p.AgreePrivacy,
		MarketingContactPermitted: p.OptInEmail,
		UseEmailForDigitalReceipt: registry.Bool(false),
		LockDeliveryNoteSales:     registry.Bool(false),
	}

	if p.Birthday != "" {
		if formatted, ok := formatBirthday(p.Birthday); ok {
			payload.Birthday = formatted
		}
	}

	address := registry.Address{
		AddressLine1: p.Address1,
		AddressLine2: p.Address2,
		City:         p.City,
		State:        strings.ToUpper(p.Region),
		ZipCode:      p.PostalCode,
		Country:      p.Country,
	}
	if !address.Empty() {
		payload.Address = &address
	}

	return payload
}

// splitName splits a full name on the first run of whitespace. The remaining
// tokens join with single spaces; a one-token name yields an empty last name.
func splitName(name string) (firstname, lastname string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// normalizeGender maps the form value onto the registry enum.
// Anything unrecognized maps to the empty string, which omits the field.
func normalizeGender(gender string) string {
	switch strings.ToLower(gender) {
	case "male":
		return "MALE"
	case "female":
		return "FEMALE"
	default:
		return ""
	}
}

// formatBirthday reformats a parsed birthday as an ISO date-time with the
// executing process's local timezone offset and no sub-second precision.
// The wall-clock instant is kept in UTC terms; only the offset designator is
// local, matching what the registry has accepted historically.
func formatBirthday(raw string) (string, bool) {
	var parsed time.Time
	var err error
	for _, layout := range birthdayLayouts {
		parsed, err = time.Parse(layout, raw)
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", false
	}

	_, offset := time.Now().Zone()
	return parsed.UTC().Format("2006-01-02T15:04:05") + offsetDesignator(offset), true
}

// offsetDesignator renders a zone offset in seconds as ±HH:MM.
func offsetDesignator(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
