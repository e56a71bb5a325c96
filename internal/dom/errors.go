package dom

import "fmt"

// ScrapeError represents a failure parsing rendered markup.
type ScrapeError struct {
	Message string
	Cause   error
}

func (e *ScrapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dom scrape error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("dom scrape error: %s", e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Cause
}
