package domain

// TitleMatch is one fuzzy title search hit.
type TitleMatch struct {
	Release        Release
	Matched        string // the title or original name that matched
	MatchedIndexes []int  // byte offsets in Matched (for highlighting)
	Score          int    // higher is better
}
