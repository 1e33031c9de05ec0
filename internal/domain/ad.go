// Package domain holds the entities shared across the adsearch service:
// the job-ad document model, day-parameter semantics, and sentinel errors.
package domain

// Index field names for date-based eligibility filtering. These must match
// the mapping of the ad index.
const (
	FieldPublished     = "publishedAt"
	FieldLastPublished = "lastPublishedAt"
	FieldUpdated       = "updatedAt"
	FieldPositions     = "positions"
)

// Ad is the job advertisement as served by the API. The JSON mapping is the
// fixed serialization schema for both index documents and API responses;
// there is no dynamic field lookup anywhere.
type Ad struct {
	ID              string       `json:"id"`
	Header          string       `json:"header"`
	Content         AdContent    `json:"content"`
	Employer        *Employer    `json:"employer,omitempty"`
	Location        string       `json:"location,omitempty"`
	Application     *Application `json:"application,omitempty"`
	PublishedAt     string       `json:"publishedAt,omitempty"`
	LastPublishedAt string       `json:"lastPublishedAt,omitempty"`
	UpdatedAt       string       `json:"updatedAt,omitempty"`
	Positions       int          `json:"positions,omitempty"`
	Remote          bool         `json:"remote,omitempty"`
	Occupations     []string     `json:"occupations,omitempty"`
	Skills          []string     `json:"skills,omitempty"`
	Traits          []string     `json:"traits,omitempty"`
}

// AdContent carries the long-text fields of an ad. Text is plain text,
// Markup is the same content with lightweight markup. Both are truncated
// to a fixed word budget in API responses.
type AdContent struct {
	Text   string `json:"text"`
	Markup string `json:"markup,omitempty"`
}

// Employer identifies the advertising employer.
type Employer struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// Application holds how to apply for the advertised position.
type Application struct {
	URL       string `json:"url,omitempty"`
	Email     string `json:"email,omitempty"`
	Deadline  string `json:"deadline,omitempty"`
	Reference string `json:"reference,omitempty"`
}
