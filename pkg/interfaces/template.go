package interfaces

import (
	"io"
)

// TemplateRenderer renders named layout templates. Render writes to the
// optional writer when provided, otherwise it returns the rendered output as
// a string. Implementations report missing templates with a typed error so
// callers can distinguish lookup failures from execution failures.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFunc(name string, fn any) error
	GlobalContext(data any) error
}
