package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/telegrambis/internal/agent"
	"github.com/pfrederiksen/telegrambis/internal/history"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ValidationResult is the JSON form of a validate run
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// HealthResult is the JSON form of a health run
type HealthResult struct {
	Agent       string     `json:"agent"`
	Working     bool       `json:"working"`
	LastEventAt *time.Time `json:"last_event_at,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// WriteValidation writes the validation errors in the specified format
func WriteValidation(w io.Writer, errs []error, format OutputFormat) error {
	result := ValidationResult{Valid: len(errs) == 0, Errors: make([]string, 0, len(errs))}
	for _, err := range errs {
		result.Errors = append(result.Errors, err.Error())
	}

	if format == FormatJSON {
		return writeJSON(w, result)
	}

	if result.Valid {
		_, err := fmt.Fprintln(w, "Options are valid.")
		return err
	}
	fmt.Fprintf(w, "%d problem(s) found:\n", len(result.Errors))
	for _, msg := range result.Errors {
		if _, err := fmt.Fprintf(w, "  - %s\n", msg); err != nil {
			return err
		}
	}
	return nil
}

// WriteHealth writes the health report in the specified format
func WriteHealth(w io.Writer, name string, working bool, state history.State, format OutputFormat) error {
	result := HealthResult{Agent: name, Working: working, LastError: state.LastError}
	if !state.LastEventAt.IsZero() {
		result.LastEventAt = &state.LastEventAt
	}
	if !state.LastErrorAt.IsZero() {
		result.LastErrorAt = &state.LastErrorAt
	}

	if format == FormatJSON {
		return writeJSON(w, result)
	}

	status := "working"
	if !working {
		status = "not working"
	}
	fmt.Fprintf(w, "%s: %s\n", name, status)
	fmt.Fprintf(w, "  last event: %s\n", formatTime(state.LastEventAt))
	fmt.Fprintf(w, "  last error: %s\n", formatTime(state.LastErrorAt))
	if state.LastError != "" {
		fmt.Fprintf(w, "       error: %s\n", state.LastError)
	}
	return nil
}

// WriteDescribe writes the agent metadata in the specified format
func WriteDescribe(w io.Writer, meta agent.Metadata, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, meta)
	}

	fmt.Fprintf(w, "%s (schedule: %s, dry run: %t, one event per run: %t)\n\n",
		meta.Name, meta.DefaultSchedule, meta.CanDryRun, meta.NoBulkReceive)
	fmt.Fprintln(w, meta.Description)
	fmt.Fprintln(w, "Options:")
	for _, field := range meta.Fields {
		line := fmt.Sprintf("  %-33s %s", field.Name, field.Type)
		if len(field.Values) > 0 {
			line += fmt.Sprintf(" %v", field.Values)
		}
		if def, ok := meta.DefaultOptions[field.Name]; ok && !field.Secret && fmt.Sprint(def) != "" {
			line += fmt.Sprintf(" (default %v)", def)
		}
		if field.Secret {
			line += " (secret)"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
	_, err := fmt.Fprint(w, meta.EventDescription)
	return err
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
