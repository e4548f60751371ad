// Package renderer turns template references and notification payloads into
// sendable content using text/template.
package renderer

import (
	"fmt"
	"strings"
	"text/template"

	"notify-engine/internal/domain/entity"
)

// Template pairs a subject line and a body for one template reference.
type Template struct {
	Subject string
	Body    string
}

// TemplateRenderer resolves template references against a fixed set of
// parsed templates. The set is immutable after construction, so rendering is
// safe for concurrent use across delivery passes.
type TemplateRenderer struct {
	subjects map[string]*template.Template
	bodies   map[string]*template.Template
}

// NewTemplateRenderer parses the given templates. A malformed template is a
// deployment error and fails construction.
func NewTemplateRenderer(templates map[string]Template) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		subjects: make(map[string]*template.Template, len(templates)),
		bodies:   make(map[string]*template.Template, len(templates)),
	}
	for ref, tpl := range templates {
		subject, err := template.New(ref + ".subject").Parse(tpl.Subject)
		if err != nil {
			return nil, fmt.Errorf("parse subject template %q: %w", ref, err)
		}
		body, err := template.New(ref + ".body").Parse(tpl.Body)
		if err != nil {
			return nil, fmt.Errorf("parse body template %q: %w", ref, err)
		}
		r.subjects[ref] = subject
		r.bodies[ref] = body
	}
	return r, nil
}

// Render executes the referenced template pair against the payload. An
// unknown reference or an execution failure is reported as
// *entity.RenderError and fails the channel attempt without a send.
func (r *TemplateRenderer) Render(templateRef string, data map[string]any) (entity.RenderedContent, error) {
	subject, ok := r.subjects[templateRef]
	if !ok {
		return entity.RenderedContent{}, &entity.RenderError{
			TemplateRef: templateRef,
			Err:         fmt.Errorf("unknown template reference"),
		}
	}

	var subjectBuf, bodyBuf strings.Builder
	if err := subject.Execute(&subjectBuf, data); err != nil {
		return entity.RenderedContent{}, &entity.RenderError{TemplateRef: templateRef, Err: err}
	}
	if err := r.bodies[templateRef].Execute(&bodyBuf, data); err != nil {
		return entity.RenderedContent{}, &entity.RenderError{TemplateRef: templateRef, Err: err}
	}

	return entity.RenderedContent{
		Subject: subjectBuf.String(),
		Body:    bodyBuf.String(),
	}, nil
}

// Builtin returns the stock templates covering the engine's event types.
// Deployments extend or replace these through configuration.
func Builtin() map[string]Template {
	return map[string]Template{
		"campaign_published": {
			Subject: "Campaign published: {{.campaign_name}}",
			Body:    "Your campaign \"{{.campaign_name}}\" is now live.",
		},
		"creator_invited": {
			Subject: "You have been invited to {{.campaign_name}}",
			Body:    "{{.inviter_name}} invited you to join the campaign \"{{.campaign_name}}\".",
		},
		"payout_completed": {
			Subject: "Payout completed",
			Body:    "Your payout of {{.amount}} {{.currency}} has been completed.",
		},
		"rights_expiring": {
			Subject: "Content rights expiring soon",
			Body:    "Usage rights for \"{{.content_name}}\" expire on {{.expires_on}}.",
		},
		"system_alert": {
			Subject: "System alert: {{.title}}",
			Body:    "{{.message}}",
		},
	}
}
