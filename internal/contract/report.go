package contract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Report collects the assertions of one contract check.
type Report struct {
	ID         string        `json:"id"`
	Root       string        `json:"root"`
	Contract   Contract      `json:"contract"`
	CheckedAt  time.Time     `json:"checked_at"`
	Duration   time.Duration `json:"duration_ns"`
	Assertions []Assertion   `json:"assertions"`
}

// Passed reports whether every assertion passed.
func (r *Report) Passed() bool {
	for _, a := range r.Assertions {
		if !a.Passed {
			return false
		}
	}
	return true
}

// Failed returns the failing assertions in report order.
func (r *Report) Failed() []Assertion {
	var out []Assertion
	for _, a := range r.Assertions {
		if !a.Passed {
			out = append(out, a)
		}
	}
	return out
}

// Assertion looks up an assertion by name.
func (r *Report) Assertion(name string) (Assertion, bool) {
	for _, a := range r.Assertions {
		if a.Name == name {
			return a, true
		}
	}
	return Assertion{}, false
}

// JSON returns the indented JSON form of the report.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Markdown renders the report as a markdown document suitable for glamour.
func (r *Report) Markdown() string {
	var b strings.Builder

	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "# Entrypoint contract: %s\n\n", status)
	fmt.Fprintf(&b, "Server root: `%s`\n\n", r.Root)

	b.WriteString("| check | target | result |\n|---|---|---|\n")
	for _, a := range r.Assertions {
		result := "ok"
		if !a.Passed {
			result = "**" + strings.ReplaceAll(a.Message, "|", `\|`) + "**"
		}
		fmt.Fprintf(&b, "| %s | `%s` | %s |\n", a.Name, a.Target, result)
	}

	failed := len(r.Failed())
	fmt.Fprintf(&b, "\n%d/%d assertions passed in %v.\n", len(r.Assertions)-failed, len(r.Assertions), r.Duration.Round(time.Microsecond))
	return b.String()
}
