// Package notify renders per-player messages from templates and hands them
// to the mail or SMS transport.
package notify

import (
	"fmt"
	"strings"

	"tombola/internal/models"

	"github.com/aymerick/raymond"
	"github.com/goccy/go-yaml"
)

// Context is what a template is evaluated against.
type Context struct {
	Player *models.Player
	// Target is nil when no lottery was drawn yet.
	Target  *models.Player
	Players []*models.Player
}

func playerValues(p *models.Player) map[string]interface{} {
	if p == nil {
		return nil
	}
	return map[string]interface{}{
		"id":             p.ID,
		"name":           p.Name,
		"disambiguation": p.Disambiguation,
		"displayName":    p.DisplayName,
		"email":          p.Email,
		"phone":          p.Phone,
	}
}

func (c Context) values() map[string]interface{} {
	players := make([]interface{}, 0, len(c.Players))
	for _, p := range c.Players {
		players = append(players, playerValues(p))
	}
	values := map[string]interface{}{
		"player":  playerValues(c.Player),
		"players": players,
	}
	if c.Target != nil {
		values["target"] = playerValues(c.Target)
	}
	return values
}

// Message is a rendered email.
type Message struct {
	From     string
	To       string
	Cc       string
	Bcc      string
	Subject  string
	Text     string
	HTML     string
	Markdown string
}

// MailTemplate is a compiled mail template: a YAML front matter whose string
// values are Handlebars templates, followed by a Markdown body.
type MailTemplate struct {
	fields map[string]interface{}
}

// CompileMailTemplate compiles src. The body becomes the markdown part of the
// message, or its plain text part when the front matter sets
// "markdown: false".
func CompileMailTemplate(src string) (*MailTemplate, error) {
	attributes, body, err := splitFrontMatter(src)
	if err != nil {
		return nil, err
	}

	if markdown, ok := attributes["markdown"].(bool); ok && !markdown {
		delete(attributes, "markdown")
		attributes["text"] = body
	} else {
		attributes["markdown"] = body
	}

	compiled, err := compileRecursively(attributes)
	if err != nil {
		return nil, err
	}
	return &MailTemplate{fields: compiled.(map[string]interface{})}, nil
}

// Render evaluates every field of the template.
func (t *MailTemplate) Render(ctx Context) (Message, error) {
	rendered, err := evaluateRecursively(t.fields, ctx.values())
	if err != nil {
		return Message{}, err
	}
	fields := rendered.(map[string]interface{})

	field := func(key string) string {
		if s, ok := fields[key].(string); ok {
			return s
		}
		if v, ok := fields[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}
	return Message{
		From:     field("from"),
		To:       field("to"),
		Cc:       field("cc"),
		Bcc:      field("bcc"),
		Subject:  field("subject"),
		Text:     field("text"),
		HTML:     field("html"),
		Markdown: field("markdown"),
	}, nil
}

// TextTemplate is a single Handlebars template, used for text messages.
type TextTemplate struct {
	tpl *raymond.Template
}

// CompileTextTemplate compiles src as a whole.
func CompileTextTemplate(src string) (*TextTemplate, error) {
	tpl, err := raymond.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("compile template: %w", err)
	}
	return &TextTemplate{tpl: tpl}, nil
}

// Render evaluates the template.
func (t *TextTemplate) Render(ctx Context) (string, error) {
	out, err := t.tpl.Exec(ctx.values())
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

const frontMatterDelimiter = "---"

func splitFrontMatter(src string) (map[string]interface{}, string, error) {
	attributes := make(map[string]interface{})

	src = strings.TrimPrefix(src, "\ufeff")
	first, rest, found := strings.Cut(src, "\n")
	if !found || strings.TrimSpace(first) != frontMatterDelimiter {
		return attributes, src, nil
	}

	var header []string
	lines := strings.Split(rest, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != frontMatterDelimiter {
			header = append(header, line)
			continue
		}

		if err := yaml.Unmarshal([]byte(strings.Join(header, "\n")), &attributes); err != nil {
			return nil, "", fmt.Errorf("parse front matter: %w", err)
		}
		if attributes == nil {
			attributes = make(map[string]interface{})
		}
		body := strings.Join(lines[i+1:], "\n")
		return attributes, strings.TrimLeft(body, "\r\n"), nil
	}

	return nil, "", fmt.Errorf("parse front matter: missing closing %q", frontMatterDelimiter)
}

func compileRecursively(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		tpl, err := raymond.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("compile template: %w", err)
		}
		return tpl, nil
	case map[string]interface{}:
		compiled := make(map[string]interface{}, len(v))
		for key, item := range v {
			c, err := compileRecursively(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			compiled[key] = c
		}
		return compiled, nil
	case []interface{}:
		compiled := make([]interface{}, len(v))
		for i, item := range v {
			c, err := compileRecursively(item)
			if err != nil {
				return nil, err
			}
			compiled[i] = c
		}
		return compiled, nil
	default:
		return v, nil
	}
}

func evaluateRecursively(value interface{}, ctx map[string]interface{}) (interface{}, error) {
	switch v := value.(type) {
	case *raymond.Template:
		out, err := v.Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		return out, nil
	case map[string]interface{}:
		evaluated := make(map[string]interface{}, len(v))
		for key, item := range v {
			e, err := evaluateRecursively(item, ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			evaluated[key] = e
		}
		return evaluated, nil
	case []interface{}:
		evaluated := make([]interface{}, len(v))
		for i, item := range v {
			e, err := evaluateRecursively(item, ctx)
			if err != nil {
				return nil, err
			}
			evaluated[i] = e
		}
		return evaluated, nil
	default:
		return v, nil
	}
}
