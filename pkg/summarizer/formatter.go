package summarizer

import "encoding/json"

// Formatter defines the interface for formatting a Summary.
type Formatter interface {
	// Format converts a Summary to a formatted string.
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// NewJSONFormatter returns a Formatter producing indented JSON.
func NewJSONFormatter() Formatter {
	return FormatFunc(func(summary *Summary) string {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return "{}\n"
		}
		return string(data) + "\n"
	})
}
