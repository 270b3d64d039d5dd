package handlers

import (
	"io"
)

// TemplateRenderer renders pages and partials.
type TemplateRenderer interface {
	Render(w io.Writer, name string, data interface{}) error
	RenderContent(w io.Writer, name string, data interface{}) error
	RenderPartial(w io.Writer, name string, data interface{}) error
}
