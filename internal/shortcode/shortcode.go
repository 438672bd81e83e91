// Package shortcode finds viewer shortcodes in free content and expands them.
package shortcode

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Tags are the shortcode names that render a viewer, longest first so that a
// prefix never shadows a longer name.
var Tags = []string{"3d_model_viewer", "model_viewer", "3d_model"}

var attrPattern = regexp.MustCompile(`([\w-]+)\s*=\s*"([^"]*)"(?:\s|$)|([\w-]+)\s*=\s*'([^']*)'(?:\s|$)|([\w-]+)\s*=\s*([^\s'"]+)(?:\s|$)|"([^"]*)"(?:\s|$)|'([^']*)'(?:\s|$)|(\S+)(?:\s|$)`)

// Shortcode is one occurrence in content. Start and End delimit the full
// occurrence including any enclosed content and closing tag.
type Shortcode struct {
	Tag     string
	Attrs   map[string]string
	Content string
	Start   int
	End     int
	// Escaped occurrences ([[tag]]) are printed literally without the outer brackets.
	Escaped bool
}

// RenderFunc produces the replacement for sc. instance is the position of the
// shortcode among all rendered shortcodes in the content, starting at 1.
type RenderFunc func(ctx context.Context, sc Shortcode, instance int) string

// Parse returns every viewer shortcode in content in order of appearance.
func Parse(content string) []Shortcode {
	var out []Shortcode
	for pos := 0; pos < len(content); {
		open := strings.IndexByte(content[pos:], '[')
		if open < 0 {
			break
		}
		open += pos
		sc, ok := parseAt(content, open)
		if !ok {
			pos = open + 1
			continue
		}
		out = append(out, sc)
		pos = sc.End
	}
	return out
}

// Expand replaces every viewer shortcode in content with the output of render.
func Expand(ctx context.Context, content string, render RenderFunc) string {
	codes := Parse(content)
	if len(codes) == 0 {
		return content
	}

	var b strings.Builder
	last, instance := 0, 0
	for _, sc := range codes {
		b.WriteString(content[last:sc.Start])
		if sc.Escaped {
			b.WriteString(content[sc.Start+1 : sc.End-1])
		} else {
			instance++
			b.WriteString(render(ctx, sc, instance))
		}
		last = sc.End
	}
	b.WriteString(content[last:])
	return b.String()
}

func parseAt(content string, open int) (Shortcode, bool) {
	rest := content[open+1:]
	escaped := strings.HasPrefix(rest, "[")
	if escaped {
		rest = rest[1:]
	}

	tag := matchTag(rest)
	if tag == "" {
		return Shortcode{}, false
	}
	nameEnd := open + 1 + len(tag)
	if escaped {
		nameEnd++
	}

	closeIdx := strings.IndexByte(content[nameEnd:], ']')
	if closeIdx < 0 {
		return Shortcode{}, false
	}
	closeIdx += nameEnd
	attrText := content[nameEnd:closeIdx]
	end := closeIdx + 1

	sc := Shortcode{Tag: tag, Start: open}
	selfClosing := strings.HasSuffix(strings.TrimSpace(attrText), "/")
	if selfClosing {
		attrText = strings.TrimSuffix(strings.TrimSpace(attrText), "/")
	} else {
		closing := "[/" + tag + "]"
		if idx := strings.Index(content[end:], closing); idx >= 0 && !strings.Contains(content[end:end+idx], "["+tag) {
			sc.Content = content[end : end+idx]
			end += idx + len(closing)
		}
	}
	sc.Attrs = ParseAttributes(attrText)

	if escaped {
		if end >= len(content) || content[end] != ']' {
			return Shortcode{}, false
		}
		end++
		sc.Escaped = true
	}
	sc.End = end
	return sc, true
}

func matchTag(s string) string {
	for _, tag := range Tags {
		if !strings.HasPrefix(s, tag) {
			continue
		}
		if len(s) == len(tag) {
			return ""
		}
		if strings.IndexByte("]/ \t\r\n", s[len(tag)]) >= 0 {
			return tag
		}
	}
	return ""
}

// ParseAttributes reads shortcode attributes: name="value", name='value',
// name=value and positional values. Names are lower-cased; positional values
// are keyed by their index.
func ParseAttributes(text string) map[string]string {
	attrs := map[string]string{}
	text = strings.NewReplacer("\u00a0", " ", "\u200b", " ").Replace(text)

	positional := 0
	for _, m := range attrPattern.FindAllStringSubmatch(strings.TrimSpace(text), -1) {
		switch {
		case m[1] != "":
			attrs[strings.ToLower(m[1])] = m[2]
		case m[3] != "":
			attrs[strings.ToLower(m[3])] = m[4]
		case m[5] != "":
			attrs[strings.ToLower(m[5])] = m[6]
		default:
			value := m[7]
			if value == "" {
				value = m[8]
			}
			if value == "" {
				value = m[9]
			}
			attrs[strconv.Itoa(positional)] = value
			positional++
		}
	}
	return attrs
}
