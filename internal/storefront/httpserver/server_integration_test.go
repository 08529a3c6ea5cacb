package httpserver_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/storefront/internal/storefront/testutil"
)

func postForm(t *testing.T, client *http.Client, target string, values url.Values, htmx bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func registerValues(token string) url.Values {
	return url.Values{
		"_csrf":            {token},
		"email":            {"anne@example.com"},
		"first_name":       {"Anne"},
		"last_name":        {"Shirley"},
		"password":         {"greengables"},
		"confirm_password": {"greengables"},
	}
}

func TestRootRedirectsToMain(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, err := testutil.NewClient(t).Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/main", resp.Header.Get("Location"))
}

func TestMainPageForGuest(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, err := testutil.NewClient(t).Get(ts.URL + "/main")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store, max-age=0", resp.Header.Get("Cache-Control"))
	doc := testutil.ParseResponse(t, resp)

	require.Equal(t, "Storefront", doc.Find("title").Text())
	require.Equal(t, "Log in", strings.TrimSpace(doc.Find("a.header__login").Text()))
	require.Equal(t, 6, doc.Find("article.product-card").Length())
	require.Equal(t, "All products", strings.TrimSpace(doc.Find(".sidebar__link--active").Text()))
}

func TestMainPageFiltersByCategory(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, err := testutil.NewClient(t).Get(ts.URL + "/main?category=books")
	require.NoError(t, err)
	defer resp.Body.Close()
	doc := testutil.ParseResponse(t, resp)

	require.Equal(t, "Books", strings.TrimSpace(doc.Find(".sidebar__link--active").Text()))
	require.Equal(t, "Books", doc.Find(".slider__heading").Text())
	cards := doc.Find("article.product-card")
	require.Equal(t, 1, cards.Length())
	require.Equal(t, "The Go Programming Language", cards.Find(".product-card__title").Text())
}

func TestLoginModalFullPageAndFragment(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	client := testutil.NewClient(t)

	resp, err := client.Get(ts.URL + "/modal/login")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := testutil.ParseResponse(t, resp)
	require.Equal(t, "Log in | Storefront", doc.Find("title").Text())
	require.Equal(t, 1, doc.Find("#modal-outlet form#login-form").Length())
	require.Equal(t, 6, doc.Find("article.product-card").Length(), "main page stays rendered behind the modal")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/modal/register", nil)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")
	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc = testutil.ParseResponse(t, resp)
	require.Equal(t, 1, doc.Find("#modal form#register-form").Length())
	require.Zero(t, doc.Find("title").Length())
}

func TestSubmitWithoutCSRFTokenIsForbidden(t *testing.T) {
	t.Parallel()

	backend := testutil.NewAuthBackend(t)
	ts := testutil.NewServer(t, testutil.WithAuthBackendURL(backend.URL))
	client := testutil.NewClient(t)

	resp := postForm(t, client, ts.URL+"/login", url.Values{"email": {"anne@example.com"}, "password": {"greengables"}}, false)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Zero(t, backend.Calls())
}

func TestInvalidLoginNeverReachesBackend(t *testing.T) {
	t.Parallel()

	backend := testutil.NewAuthBackend(t)
	ts := testutil.NewServer(t, testutil.WithAuthBackendURL(backend.URL))
	client := testutil.NewClient(t)
	token := testutil.CSRFToken(t, client, ts.URL)

	resp := postForm(t, client, ts.URL+"/login", url.Values{"_csrf": {token}, "email": {"not-an-email"}, "password": {"greengables"}}, false)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	doc := testutil.ParseResponse(t, resp)
	require.NotEmpty(t, doc.Find("#field-email-error").Text())
	value, _ := doc.Find("input[name=email]").Attr("value")
	require.Equal(t, "not-an-email", value)
	require.Zero(t, backend.Calls())
}

func TestRegisterRejectsShortPasswordLocally(t *testing.T) {
	t.Parallel()

	backend := testutil.NewAuthBackend(t)
	ts := testutil.NewServer(t, testutil.WithAuthBackendURL(backend.URL))
	client := testutil.NewClient(t)
	token := testutil.CSRFToken(t, client, ts.URL)

	values := registerValues(token)
	values.Set("password", "passw")
	values.Set("confirm_password", "passw")
	resp := postForm(t, client, ts.URL+"/register", values, true)

	require.Equal(t, http.StatusOK, resp.StatusCode, "htmx fragments are always swapped")
	doc := testutil.ParseResponse(t, resp)
	require.Equal(t, 1, doc.Find("form#register-form").Length())
	require.NotEmpty(t, doc.Find("#field-password-error").Text())
	require.Zero(t, backend.Calls())
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	t.Parallel()

	backend := testutil.NewAuthBackend(t)
	ts := testutil.NewServer(t, testutil.WithAuthBackendURL(backend.URL))
	client := testutil.NewClient(t)
	token := testutil.CSRFToken(t, client, ts.URL)

	resp := postForm(t, client, ts.URL+"/register", registerValues(token), false)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/modal/login?status=registered&email=anne%40example.com", resp.Header.Get("Location"))
	require.Equal(t, 1, backend.Calls())

	resp, err := client.Get(ts.URL + resp.Header.Get("Location"))
	require.NoError(t, err)
	defer resp.Body.Close()
	doc := testutil.ParseResponse(t, resp)
	require.Equal(t, "Registration complete. Please log in.", doc.Find(".form__message").Text())
	email, _ := doc.Find("#login-form input[name=email]").Attr("value")
	require.Equal(t, "anne@example.com", email)

	resp = postForm(t, client, ts.URL+"/login", url.Values{"_csrf": {token}, "email": {"anne@example.com"}, "password": {"greengables"}}, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "/main", resp.Header.Get("HX-Redirect"))
	require.Equal(t, 2, backend.Calls())

	resp, err = client.Get(ts.URL + "/main")
	require.NoError(t, err)
	defer resp.Body.Close()
	doc = testutil.ParseResponse(t, resp)
	require.Equal(t, "anne@example.com", doc.Find(".header__email").Text())
	require.Equal(t, "Log out", strings.TrimSpace(doc.Find("form.header__logout button").Text()))
	require.Zero(t, doc.Find("a.header__login").Length())

	resp, err = client.Get(ts.URL + "/modal/login")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode, "guests only")

	token = testutil.CSRFToken(t, client, ts.URL)
	resp = postForm(t, client, ts.URL+"/logout", url.Values{"_csrf": {token}}, false)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/main", resp.Header.Get("Location"))

	resp, err = client.Get(ts.URL + "/main")
	require.NoError(t, err)
	defer resp.Body.Close()
	doc = testutil.ParseResponse(t, resp)
	require.Equal(t, 1, doc.Find("a.header__login").Length())
}

func TestRegisterDuplicateEmailShowsFieldError(t *testing.T) {
	t.Parallel()

	backend := testutil.NewAuthBackend(t)
	ts := testutil.NewServer(t, testutil.WithAuthBackendURL(backend.URL))
	client := testutil.NewClient(t)
	token := testutil.CSRFToken(t, client, ts.URL)

	resp := postForm(t, client, ts.URL+"/register", registerValues(token), false)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = postForm(t, client, ts.URL+"/register", registerValues(token), false)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	doc := testutil.ParseResponse(t, resp)
	require.Equal(t, "Email already exits", doc.Find("#field-email-error").Text())
	status, _ := doc.Find("#register-status").Attr("data-status")
	require.Equal(t, "error", status)
	require.Equal(t, 2, backend.Calls())
}

func TestLoginWithWrongPasswordShowsError(t *testing.T) {
	t.Parallel()

	backend := testutil.NewAuthBackend(t)
	ts := testutil.NewServer(t, testutil.WithAuthBackendURL(backend.URL))
	client := testutil.NewClient(t)
	token := testutil.CSRFToken(t, client, ts.URL)

	resp := postForm(t, client, ts.URL+"/login", url.Values{"_csrf": {token}, "email": {"ghost@example.com"}, "password": {"greengables"}}, false)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	doc := testutil.ParseResponse(t, resp)
	require.Equal(t, "Invalid email or password.", doc.Find(".form__error").Text())
	status, _ := doc.Find("#login-status").Attr("data-status")
	require.Equal(t, "error", status)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/forms/login/status", nil)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")
	statusResp, err := client.Do(req)
	require.NoError(t, err)
	defer statusResp.Body.Close()
	require.Equal(t, http.StatusOK, statusResp.StatusCode)
	doc = testutil.ParseResponse(t, statusResp)
	require.Equal(t, "An error has occurred.", doc.Find("#login-status").Text())
}

func TestFormStatusRequiresHTMX(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	client := testutil.NewClient(t)

	resp, err := client.Get(ts.URL + "/forms/login/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NotEqual(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/forms/checkout/status", nil)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")
	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
