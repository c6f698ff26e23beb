package models

// KS2Result holds one year of primary (SATs) results for a school.
// Percentages are 0-100; progress scores are centred on zero.
type KS2Result struct {
	Year             int      `json:"year"`
	ReadingExpected  *float64 `json:"readingExpected"`
	WritingExpected  *float64 `json:"writingExpected"`
	MathsExpected    *float64 `json:"mathsExpected"`
	CombinedExpected *float64 `json:"combinedExpected"`
	ReadingHigher    *float64 `json:"readingHigher"`
	WritingHigher    *float64 `json:"writingHigher"`
	MathsHigher      *float64 `json:"mathsHigher"`
	ProgressReading  *float64 `json:"progressReading"`
	ProgressWriting  *float64 `json:"progressWriting"`
	ProgressMaths    *float64 `json:"progressMaths"`
}

// KS4Result holds one year of secondary (GCSE) results for a school.
type KS4Result struct {
	Year           int      `json:"year"`
	Attainment8    *float64 `json:"attainment8"`
	Progress8      *float64 `json:"progress8"`
	Basics94       *float64 `json:"basics94"`
	Basics95       *float64 `json:"basics95"`
	EBacc          *float64 `json:"ebacc"`
	EBaccAvgPoints *float64 `json:"ebaccAvgPoints"`
}
