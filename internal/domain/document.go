package domain

// RawDocument is a single fetched page as produced by the external fetcher.
type RawDocument struct {
	SourceID string `json:"url"`
	Markup   string `json:"html"`
}

// ExtractedItem is the plain-text rendition of one RawDocument.
type ExtractedItem struct {
	SourceID string `json:"url"`
	Text     string `json:"text"`
}
