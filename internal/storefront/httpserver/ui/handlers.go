package ui

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/storefront/internal/storefront/catalog"
	custommw "finitefield.org/storefront/internal/storefront/httpserver/middleware"
	"finitefield.org/storefront/internal/storefront/loadstatus"
	"finitefield.org/storefront/internal/storefront/observability"
	"finitefield.org/storefront/internal/storefront/templates"
	"finitefield.org/storefront/internal/storefront/templates/auth"
	"finitefield.org/storefront/internal/storefront/templates/helpers"
	"finitefield.org/storefront/internal/storefront/templates/shop"
)

const (
	siteTitle = "Storefront"
	homePath  = "/main"
)

// Dependencies collects external services required by the UI handlers.
type Dependencies struct {
	Catalog    catalog.Service
	LoadStatus *loadstatus.Registry
	// ShowEnvironment renders the environment badge.
	ShowEnvironment bool
}

// Handlers exposes HTTP handlers for storefront pages and fragments.
type Handlers struct {
	catalog         catalog.Service
	loadStatus      *loadstatus.Registry
	showEnvironment bool
}

// NewHandlers wires the UI handler set.
func NewHandlers(deps Dependencies) *Handlers {
	service := deps.Catalog
	if service == nil {
		service = catalog.NewStaticService()
	}
	registry := deps.LoadStatus
	if registry == nil {
		registry = loadstatus.NewRegistry(nil)
	}
	return &Handlers{
		catalog:         service,
		loadStatus:      registry,
		showEnvironment: deps.ShowEnvironment,
	}
}

// Main renders the main layout.
func (h *Handlers) Main(w http.ResponseWriter, r *http.Request) {
	h.RenderMain(w, r, nil, http.StatusOK)
}

// RenderMain renders the full page, optionally with the modal outlet filled.
func (h *Handlers) RenderMain(w http.ResponseWriter, r *http.Request, modal *shop.ModalData, status int) {
	templ.Handler(templates.MainPage(h.buildMainPage(r, modal)), templ.WithStatus(status)).ServeHTTP(w, r)
}

// RenderModal serves the modal fragment to htmx and the full page otherwise.
func (h *Handlers) RenderModal(w http.ResponseWriter, r *http.Request, modal shop.ModalData, status int) {
	if custommw.IsHTMXRequest(r.Context()) {
		w.Header().Add("Vary", "HX-Request")
		templ.Handler(templates.Modal(modal), templ.WithStatus(status)).ServeHTTP(w, r)
		return
	}
	h.RenderMain(w, r, &modal, status)
}

// RenderForm serves the form fragment to htmx and the full page with the modal open otherwise.
// htmx only swaps successful responses, so fragments are always sent with 200.
func (h *Handlers) RenderForm(w http.ResponseWriter, r *http.Request, form auth.FormData, status int) {
	form.CSRFToken = custommw.CSRFTokenFromContext(r.Context())
	if custommw.IsHTMXRequest(r.Context()) {
		templ.Handler(templates.Form(form)).ServeHTTP(w, r)
		return
	}
	h.RenderMain(w, r, &shop.ModalData{Form: form}, status)
}

// FormStatus renders the load-status fragment for the named form. It answers the
// polling started by a form rendered while its request is still in flight.
func (h *Handlers) FormStatus(w http.ResponseWriter, r *http.Request) {
	form := strings.ToLower(chi.URLParam(r, "form"))
	if form != loadstatus.FormLogin && form != loadstatus.FormRegister {
		http.NotFound(w, r)
		return
	}

	status := loadstatus.StatusIdle
	if id := custommw.IdentityFromContext(r.Context()); id.SessionID != "" {
		if tracker, ok := h.loadStatus.Lookup(id.SessionID, form); ok {
			status = tracker.Status()
		}
	}
	templ.Handler(templates.FormStatus(auth.StatusData{Form: form, Status: status})).ServeHTTP(w, r)
}

func (h *Handlers) buildMainPage(r *http.Request, modal *shop.ModalData) shop.MainPageData {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	identity := custommw.IdentityFromContext(ctx)
	csrf := custommw.CSRFTokenFromContext(ctx)
	selected := strings.TrimSpace(r.URL.Query().Get("category"))

	data := shop.MainPageData{
		Title:     siteTitle,
		CSRFToken: csrf,
		Heading:   "Featured products",
		Header: shop.HeaderData{
			Authenticated: identity.Authenticated,
			Email:         identity.Email,
			CSRFToken:     csrf,
		},
		Modal: modal,
	}
	if modal != nil {
		modal.Form.CSRFToken = csrf
		data.Title = modal.Form.Title + " | " + siteTitle
	}
	if h.showEnvironment {
		data.Environment = custommw.EnvironmentFromContext(ctx)
	}

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		logger.Warn("catalog: fetch categories failed", zap.Error(err))
	}
	data.Sidebar.Items = append(data.Sidebar.Items, shop.SidebarItem{Label: "All products", Href: homePath, Active: selected == ""})
	for _, c := range categories {
		href := helpers.BuildURL(homePath, helpers.SetRawQuery("", "category", c.ID))
		data.Sidebar.Items = append(data.Sidebar.Items, shop.SidebarItem{
			Label:  c.Name,
			Href:   href,
			Active: selected != "" && helpers.NavActive(ctx, href, false),
		})
		if c.ID == selected {
			data.Heading = c.Name
		}
	}

	products, err := h.catalog.Featured(ctx)
	if err != nil {
		logger.Error("catalog: fetch products failed", zap.Error(err))
		data.CatalogError = "Products are unavailable right now. Please try again later."
		return data
	}
	if selected != "" {
		filtered := products[:0]
		for _, p := range products {
			if p.Category == selected {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	data.Products = products
	return data
}
