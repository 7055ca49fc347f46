// Package prompt builds the system directive sent ahead of the conversation
// on every model call.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/teemow/scheduler/internal/timerange"
)

//go:embed directive.tmpl
var directiveText string

var directive = template.Must(template.New("directive").Parse(directiveText))

// Builder renders the directive for a reference time.
type Builder struct {
	// DefaultCalendar is the calendar used when the user names none.
	DefaultCalendar string
}

type data struct {
	timerange.Facts
	Example         string
	DefaultCalendar string
}

// Build renders the directive with the date facts of ref.
func (b Builder) Build(ref timerange.Reference) (string, error) {
	cal := b.DefaultCalendar
	if cal == "" {
		cal = "primary"
	}

	example := ref.StartOfDay(ref.Now).Add(14 * time.Hour)
	var out strings.Builder
	err := directive.Execute(&out, data{
		Facts:           ref.Facts(),
		Example:         example.Format(timerange.Layout),
		DefaultCalendar: cal,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render directive: %w", err)
	}
	return out.String(), nil
}
