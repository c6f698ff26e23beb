package models

// AdmissionsRecord is one intake year for a school, as published by its council.
type AdmissionsRecord struct {
	URN                string  `json:"urn"`
	Year               int     `json:"year"`
	PAN                *int    `json:"pan"`
	Applications       *int    `json:"applications"`
	Offers             *int    `json:"offers"`
	LastDistanceMetres *int    `json:"lastDistanceMetres"`
	OffersLookedAfter  *int    `json:"offersLookedAfter"`
	OffersSiblings     *int    `json:"offersSiblings"`
	OffersDistance     *int    `json:"offersDistance"`
	OffersOther        *int    `json:"offersOther"`
	Appeals            *int    `json:"appeals"`
	AppealsSuccessful  *int    `json:"appealsSuccessful"`
	Source             string  `json:"source"`
	SourceURL          *string `json:"sourceUrl"`
}

// HasData reports whether the record carries any of capacity, demand or distance.
func (r *AdmissionsRecord) HasData() bool {
	return r.PAN != nil || r.Applications != nil || r.LastDistanceMetres != nil
}
