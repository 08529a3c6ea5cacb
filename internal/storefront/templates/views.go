// Package templates renders the storefront pages and fragments as templ components.
package templates

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"

	"finitefield.org/storefront/internal/storefront/loadstatus"
	"finitefield.org/storefront/internal/storefront/templates/auth"
	"finitefield.org/storefront/internal/storefront/templates/helpers"
	"finitefield.org/storefront/internal/storefront/templates/shop"
)

//go:embed html/*.tmpl
var sources embed.FS

var views = template.Must(template.New("storefront").Funcs(funcs()).ParseFS(sources, "html/*.tmpl"))

func funcs() template.FuncMap {
	m := helpers.FuncMap()
	m["status"] = func(form string, status loadstatus.Status) auth.StatusData {
		return auth.StatusData{Form: form, Status: status}
	}
	return m
}

func view(name string, data any) templ.Component {
	return templ.FromGoHTML(views.Lookup(name), data)
}

// MainPage renders the full main layout, with the modal open when data.Modal is set.
func MainPage(data shop.MainPageData) templ.Component { return view("page", data) }

// Header renders the header fragment.
func Header(data shop.HeaderData) templ.Component { return view("header", data) }

// Modal renders the modal outlet fragment.
func Modal(data shop.ModalData) templ.Component { return view("modal", data) }

// Form renders a login or register form fragment.
func Form(data auth.FormData) templ.Component { return view("form", data) }

// FormStatus renders the load status line. While loading it polls
// /forms/{form}/status every second. A submit resolves before its own response
// is rendered, so polling is seen by other views of the same session, such as a
// second tab opening the modal while the backend call is in flight.
func FormStatus(data auth.StatusData) templ.Component { return view("form-status", data) }
