package models

// CleanTextRequest represents a request to clean a single piece of text
type CleanTextRequest struct {
	Text string `json:"text"`
}

// Validate validates the clean text request
func (r *CleanTextRequest) Validate() error {
	if r.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ReloadDictionaryResponse reports the outcome of a dictionary reload
type ReloadDictionaryResponse struct {
	Entries int    `json:"entries"`
	Source  string `json:"source"`
}
