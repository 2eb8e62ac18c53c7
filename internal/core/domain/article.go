package domain

import "time"

// RawItem is one fetched page as delivered by the crawl trigger. It is
// transient: once normalized and admitted (or rejected) it is discarded.
type RawItem struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	HTML      string    `json:"html"`
}

// CrawlTask is the queue payload for a single item of a crawl run.
type CrawlTask struct {
	RunID  string    `json:"run_id"`
	Cutoff time.Time `json:"cutoff"`
	Item   RawItem   `json:"item"`
}

// CategoryGeneral is the fallback category for content no taxonomy rule claims.
const CategoryGeneral = "general"

// Article is the canonical, write-once form of an admitted item. The
// fingerprint is its identity; everything except Category is fixed at
// admission, Category is assigned exactly once by classification.
type Article struct {
	Fingerprint string    `json:"fingerprint"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at"`
	Category    string    `json:"category,omitempty"`
	// Companies holds the company tags lifted from the source markup,
	// raw surface forms for the resolver to work with.
	Companies []string  `json:"companies,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

type AdmissionStatus string

const (
	AdmissionAccepted     AdmissionStatus = "accepted"
	AdmissionDuplicate    AdmissionStatus = "duplicate"
	AdmissionBeforeCutoff AdmissionStatus = "before_cutoff"
)

// Admission is the outcome of the dedup gate for one item.
type Admission struct {
	Status  AdmissionStatus
	Article *Article
	// DuplicateOf carries the fingerprint of the already-admitted article
	// when Status is AdmissionDuplicate.
	DuplicateOf string
}
