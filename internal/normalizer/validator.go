package normalizer

// Rejection reasons reported in RowStats.
const (
	ReasonMalformed   = "malformed row"
	ReasonMissingURN  = "missing urn"
	ReasonBadYear     = "unparseable year"
	ReasonNoData      = "no capacity, applications or distance"
	ReasonNotOpen     = "not open"
	ReasonPhase       = "phase not allowed"
	ReasonCoordinates = "missing coordinates"
	ReasonHeadline    = "missing headline metric"
	ReasonPostcode    = "missing postcode"
	ReasonPrice       = "price out of range"
	ReasonShortRow    = "too few columns"
)

// inRange reports whether price lies within the inclusive bounds.
func inRange(price, lowest, highest int) bool {
	return price >= lowest && price <= highest
}
