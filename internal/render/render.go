// Package render substitutes {{name}} placeholders in prompt templates.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"content-pipeline/shared/models"
)

// Placeholder names are identifiers, optionally dotted (steps.analysis).
var placeholderRe = regexp.MustCompile(`^\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*)\s*\}\}`)

const escapedOpen = "{{{{"

// Bag is the variable set a template is rendered with.
type Bag map[string]string

// Merge returns a new bag with other's entries layered over b.
func (b Bag) Merge(other map[string]string) Bag {
	out := make(Bag, len(b)+len(other))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// UndefinedVariableError lists every placeholder without a value.
type UndefinedVariableError struct {
	Missing []string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("%s: %s", models.ErrUndefinedVariable, strings.Join(e.Missing, ", "))
}

// Is lets errors.Is match models.ErrUndefinedVariable.
func (e *UndefinedVariableError) Is(target error) bool {
	return target == models.ErrUndefinedVariable
}

// Rendered is a prompt and optional system message after substitution.
type Rendered struct {
	Prompt string
	System *string
}

// Render substitutes prompt and system with the same bag. All missing names
// from both are reported together.
func Render(prompt string, system *string, bag Bag) (Rendered, error) {
	var missing []string
	seen := map[string]bool{}

	out := Rendered{Prompt: substitute(prompt, bag, &missing, seen)}
	if system != nil {
		s := substitute(*system, bag, &missing, seen)
		out.System = &s
	}
	if len(missing) > 0 {
		return Rendered{}, &UndefinedVariableError{Missing: missing}
	}
	return out, nil
}

// String renders a single string.
func String(s string, bag Bag) (string, error) {
	r, err := Render(s, nil, bag)
	if err != nil {
		return "", err
	}
	return r.Prompt, nil
}

// Placeholders lists the distinct names referenced by s in order of first use.
func Placeholders(s string) []string {
	var names []string
	seen := map[string]bool{}
	scan(s, func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}, nil)
	return names
}

func substitute(s string, bag Bag, missing *[]string, seen map[string]bool) string {
	var b strings.Builder
	b.Grow(len(s))
	scan(s, func(name string) {
		value, ok := bag[name]
		if !ok {
			if !seen[name] {
				seen[name] = true
				*missing = append(*missing, name)
			}
			return
		}
		b.WriteString(value)
	}, &b)
	return b.String()
}

// scan walks s once, calling onName for every placeholder and copying the
// remaining text (with escapes resolved) into out when it is non-nil.
func scan(s string, onName func(string), out *strings.Builder) {
	for i := 0; i < len(s); {
		if s[i] != '{' {
			next := strings.IndexByte(s[i:], '{')
			if next < 0 {
				next = len(s) - i
			}
			if out != nil {
				out.WriteString(s[i : i+next])
			}
			i += next
			continue
		}
		if strings.HasPrefix(s[i:], escapedOpen) {
			if out != nil {
				out.WriteString("{{")
			}
			i += len(escapedOpen)
			continue
		}
		if m := placeholderRe.FindStringSubmatchIndex(s[i:]); m != nil {
			onName(s[i+m[2] : i+m[3]])
			i += m[1]
			continue
		}
		if out != nil {
			out.WriteByte('{')
		}
		i++
	}
}
