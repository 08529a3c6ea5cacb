package shop

import (
	"finitefield.org/storefront/internal/storefront/catalog"
	"finitefield.org/storefront/internal/storefront/templates/auth"
)

// HeaderData drives the header: a login button for guests, the email and
// a logout button for authenticated users.
type HeaderData struct {
	Authenticated bool
	Email         string
	CSRFToken     string
}

// SidebarItem is one category link.
type SidebarItem struct {
	Label  string
	Href   string
	Active bool
}

// SidebarData lists the category links.
type SidebarData struct {
	Items []SidebarItem
}

// ModalData is rendered into the modal outlet.
type ModalData struct {
	Form auth.FormData
}

// MainPageData is the full main layout.
type MainPageData struct {
	Title       string
	Environment string
	CSRFToken   string
	Header      HeaderData
	Sidebar     SidebarData
	Heading     string
	Products    []catalog.Product
	// CatalogError replaces the slider when products could not be loaded.
	CatalogError string
	Modal        *ModalData
}
