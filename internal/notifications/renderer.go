package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/bissquit/quotedesk/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const quoteCreatedTemplate = "quote_created"

// QuotePayload is the data passed to quote templates.
type QuotePayload struct {
	Quote        *domain.Quote
	DashboardURL string
}

// Renderer renders notifications from templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer creates a new renderer and loads all templates.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"title":      TitleCase,
		"formatTime": formatTime,
		"formatDate": formatDate,
		"formatArea": formatArea,
	}

	r := &Renderer{templates: make(map[string]*template.Template)}

	for _, name := range []string{quoteCreatedTemplate} {
		filename := fmt.Sprintf("templates/%s.tmpl", name)

		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(name).Funcs(funcMap).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return r, nil
}

// RenderQuoteCreated renders the alert for a new quote.
// Returns subject and body.
func (r *Renderer) RenderQuoteCreated(payload QuotePayload) (subject, body string, err error) {
	if payload.Quote == nil {
		return "", "", fmt.Errorf("render %s: quote is nil", quoteCreatedTemplate)
	}

	subject = fmt.Sprintf("[New quote] %s - %s", payload.Quote.Name, TitleCase(payload.Quote.ServiceType))

	var buf bytes.Buffer
	if err := r.templates[quoteCreatedTemplate].Execute(&buf, payload); err != nil {
		return "", "", fmt.Errorf("execute template %s: %w", quoteCreatedTemplate, err)
	}

	body = strings.TrimSpace(buf.String())
	return subject, body, nil
}

// Template functions

var titleCaser = cases.Title(language.English)

// TitleCase capitalizes each word, e.g. "facade cleaning" -> "Facade Cleaning".
func TitleCase(s string) string {
	return titleCaser.String(s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func formatArea(area *float64) string {
	if area == nil {
		return ""
	}
	return strconv.FormatFloat(*area, 'f', -1, 64) + " m2"
}
