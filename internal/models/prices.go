package models

// PriceStat summarizes sale prices for one postcode across every processed year.
// Median is the element at index count/2 of the ascending prices, not the mean of the middle pair.
type PriceStat struct {
	Count  int `json:"count"`
	Median int `json:"median"`
	Avg    int `json:"avg"`
	Min    int `json:"min"`
	Max    int `json:"max"`
}
