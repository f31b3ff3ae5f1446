// Package evaluate turns a candidate parameter assignment into a score:
// it renders the query template with the candidate's values, builds one
// ranking request per judged query, hands the batch to the ranking
// evaluation service, and aggregates the per-query metric scores.
package evaluate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// placeholderRe matches {{name}} placeholders, tolerating inner whitespace
var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// RenderError reports a template placeholder with no value to substitute.
// It fails the current candidate, not the whole run.
type RenderError struct {
	TemplateID   string
	Placeholders []string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering template %q: no value for placeholder(s) %v",
		e.TemplateID, e.Placeholders)
}

// Render substitutes every {{name}} placeholder in the template with its
// value. Values are formatted without quoting so a placeholder can stand
// inside or outside a JSON string in the template body. A placeholder
// with no matching value yields a *RenderError naming every unresolved
// placeholder.
func Render(templateID, template string, values map[string]any) (string, error) {
	missing := map[string]bool{}
	rendered := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		value, ok := values[name]
		if !ok {
			missing[name] = true
			return match
		}
		return formatValue(value)
	})
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", &RenderError{TemplateID: templateID, Placeholders: names}
	}
	return rendered, nil
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
