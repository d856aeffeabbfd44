package page

import (
	"bytes"
	"errors"
	"html/template"

	"github.com/Diegoproggramer/CivilCity/internal/i18n"
)

var panelTmpl = template.Must(template.New("panel").Parse(
	`<div class="fatal-error-box" role="alert" data-error-code="{{.Code}}"><h1>{{.Heading}}</h1><p><strong>{{.CodeLabel}}:</strong> {{.Code}}</p><p class="error-message">{{.Message}}</p><p>{{.Hint}}</p></div>`,
))

// ErrorPanel renders the labelled panel that replaces the outlet content.
func ErrorPanel(bundle *i18n.Bundle, lang string, code Code, message string) template.HTML {
	if bundle == nil {
		bundle = i18n.Default()
	}
	var buf bytes.Buffer
	err := panelTmpl.Execute(&buf, struct {
		Heading, CodeLabel, Hint, Message string
		Code                              Code
	}{
		Heading:   bundle.T(lang, "error.title"),
		CodeLabel: bundle.T(lang, "error.code"),
		Hint:      bundle.T(lang, "error.hint"),
		Message:   message,
		Code:      code,
	})
	if err != nil {
		return template.HTML(template.HTMLEscapeString(string(code) + ": " + message))
	}
	return template.HTML(buf.String())
}

// Message returns the localized panel message for err.
func Message(bundle *i18n.Bundle, lang string, err error) (Code, string) {
	if bundle == nil {
		bundle = i18n.Default()
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return DataLinkFailure, bundle.T(lang, "error.data_link_failure")
	}
	route := string(pe.Route)
	switch pe.Code {
	case RouteNotFound:
		return pe.Code, bundle.Tf(lang, "error.route_not_found", route)
	case ContentNotFound:
		return pe.Code, bundle.Tf(lang, "error.content_not_found", route)
	case ComponentLoadFailure:
		return pe.Code, bundle.Tf(lang, "error.component_load_failure", route)
	default:
		return DataLinkFailure, bundle.T(lang, "error.data_link_failure")
	}
}

// PanelFor renders the panel describing err.
func PanelFor(bundle *i18n.Bundle, lang string, err error) template.HTML {
	code, msg := Message(bundle, lang, err)
	return ErrorPanel(bundle, lang, code, msg)
}
