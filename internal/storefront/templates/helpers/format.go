package helpers

import (
	"html/template"
	"net/url"
	"strings"

	"finitefield.org/storefront/internal/storefront/catalog"
	"finitefield.org/storefront/internal/storefront/loadstatus"
)

// Price formats an amount in cents for product cards.
func Price(cents int64) string {
	return catalog.FormatPrice(cents)
}

// SetRawQuery returns rawQuery with key set to value.
func SetRawQuery(rawQuery, key, value string) string {
	values, _ := url.ParseQuery(rawQuery)
	if values == nil {
		values = url.Values{}
	}
	values.Set(key, value)
	return values.Encode()
}

// DelRawQuery returns rawQuery without key.
func DelRawQuery(rawQuery, key string) string {
	values, _ := url.ParseQuery(rawQuery)
	if values == nil {
		return ""
	}
	values.Del(key)
	return values.Encode()
}

// BuildURL joins path and rawQuery, replacing any query already on path.
func BuildURL(path, rawQuery string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}

// NavClass returns sidebar link classes.
func NavClass(active bool) string {
	if active {
		return "sidebar__link sidebar__link--active"
	}
	return "sidebar__link"
}

// StatusClass maps a load status to the form status modifier class.
func StatusClass(status loadstatus.Status) string {
	switch status {
	case loadstatus.StatusLoading:
		return "form-status form-status--loading"
	case loadstatus.StatusSuccess:
		return "form-status form-status--success"
	case loadstatus.StatusError:
		return "form-status form-status--error"
	default:
		return "form-status"
	}
}

// FuncMap exposes the helpers to html/template sources.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"price":       Price,
		"navClass":    NavClass,
		"statusClass": StatusClass,
		"lower":       strings.ToLower,
	}
}
