package registry

// Customer is the registry-owned customer record. The registry is the sole
// system of record; this service never persists customers locally.
type Customer struct {
	ID                        string    `json:"id"`
	Number                    string    `json:"number,omitempty"`
	Firstname                 string    `json:"firstname"`
	Lastname                  string    `json:"lastname"`
	Phone                     string    `json:"phone"`
	Email                     string    `json:"email,omitempty"`
	Gender                    string    `json:"gender,omitempty"`
	Birthday                  string    `json:"birthday,omitempty"`
	Address                   *Address  `json:"address,omitempty"`
	CustomerGroup             *GroupRef `json:"customerGroup,omitempty"`
	Active                    bool      `json:"active,omitempty"`
	Deleted                   bool      `json:"deleted,omitempty"`
	PrivacyPolicyAccepted     bool      `json:"privacyPolicyAccepted,omitempty"`
	MarketingContactPermitted bool      `json:"marketingContactPermitted,omitempty"`
}

// Address is the registry's customer address sub-record.
type Address struct {
	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
	Country      string `json:"country,omitempty"`
}

// Empty reports whether no address field is set.
func (a Address) Empty() bool {
	return a == Address{}
}

// GroupRef references a customer group by identifier.
type GroupRef struct {
	ID string `json:"id"`
}

// CustomerPayload is the create/update body in the registry's schema.
// Optional string fields carry omitempty because the registry rejects blank
// strings; boolean fields use pointers so an unset flag is omitted while an
// explicit false is still sent.
type CustomerPayload struct {
	Firstname                 string    `json:"firstname,omitempty"`
	Lastname                  string    `json:"lastname,omitempty"`
	Email                     string    `json:"email,omitempty"`
	Phone                     string    `json:"phone,omitempty"`
	Gender                    string    `json:"gender,omitempty"`
	Birthday                  string    `json:"birthday,omitempty"`
	Address                   *Address  `json:"address,omitempty"`
	CustomerGroup             *GroupRef `json:"customerGroup,omitempty"`
	Active                    *bool     `json:"active,omitempty"`
	PrivacyPolicyAccepted     *bool     `json:"privacyPolicyAccepted,omitempty"`
	MarketingContactPermitted *bool     `json:"marketingContactPermitted,omitempty"`
	UseEmailForDigitalReceipt *bool     `json:"useEmailForDigitalReceipt,omitempty"`
	LockDeliveryNoteSales     *bool     `json:"lockDeliveryNoteSales,omitempty"`
}

// CustomerRef is the created-record stub the registry returns from a batch
// create. Only the identifier is guaranteed; callers re-fetch for the full
// record.
type CustomerRef struct {
	ID     string `json:"id"`
	Number string `json:"number,omitempty"`
}

// SearchPage is the registry's paged response envelope. Page numbers are
// 1-indexed; PagesTotal is only reliable once results exist.
type SearchPage struct {
	CurrentPage  int        `json:"currentPage"`
	PagesTotal   int        `json:"pagesTotal"`
	Results      []Customer `json:"results"`
	ResultsTotal int        `json:"resultsTotal"`
}

// Bool returns a pointer to v, for optional payload flags.
func Bool(v bool) *bool {
	return &v
}
