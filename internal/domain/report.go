package domain

import "time"

// Report is an imported news report. Body is markdown; imports
// convert HTML source bodies on the way in.
type Report struct {
	CreatedAt   time.Time `json:"created_at"`
	PublishedAt time.Time `json:"published_at"`
	ID          string    `json:"id"`
	ImporterID  string    `json:"importer_id"`
	ExternalID  string    `json:"external_id,omitempty"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Category    string    `json:"category,omitempty"`
	Body        string    `json:"body"`
	SourceFile  string    `json:"source_file,omitempty"`
}

// ImportResult summarizes one import run.
type ImportResult struct {
	SourceFile string   `json:"source_file"`
	Imported   int      `json:"imported"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}
