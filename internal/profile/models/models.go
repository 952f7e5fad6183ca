// Package models defines the loyalty form profile collected by the kiosk.
package models

import (
	s "loyalty-gateway/pkg/string"
)

// Profile is the raw loyalty form input. Field names mirror the kiosk form;
// the converter maps them into the registry's schema.
type Profile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Gender     string `json:"gender,omitempty"`
	Birthday   string `json:"birthday,omitempty"`
	Address1   string `json:"address1,omitempty"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`

	// Consent flags are tri-state: unset, explicit true, explicit false.
	AgreePrivacy *bool `json:"agreePrivacy,omitempty"`
	OptInEmail   *bool `json:"optInEmail,omitempty"`
}

// Normalize trims surrounding whitespace from the free-text fields.
func (p *Profile) Normalize() {
	s.TrimStrings(&p.Name, &p.Email, &p.Phone, &p.Gender,
		&p.Address1, &p.Address2, &p.City, &p.Region, &p.PostalCode, &p.Country)
}
