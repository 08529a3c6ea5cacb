package forms_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/storefront/internal/storefront/forms"
)

func TestLoginValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		form   forms.Login
		failed []string
	}{
		{name: "valid", form: forms.Login{Email: "chris@chrisperko.net", Password: "password"}},
		{name: "missing fields", form: forms.Login{}, failed: []string{"email", "password"}},
		{name: "bad email", form: forms.Login{Email: "chris@", Password: "password"}, failed: []string{"email"}},
		{name: "uppercase email", form: forms.Login{Email: "Chris@Example.com", Password: "password"}, failed: []string{"email"}},
		{name: "tld too long", form: forms.Login{Email: "a@b.museum", Password: "password"}, failed: []string{"email"}},
		{name: "short password", form: forms.Login{Email: "a@b.io", Password: "short"}, failed: []string{"password"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errs := tc.form.Validate()
			require.Len(t, errs, len(tc.failed), "errors: %v", errs)
			for _, field := range tc.failed {
				require.True(t, errs.Has(field), "expected %s to fail", field)
			}
		})
	}
}

func TestLoginRequiredMessageWinsOverPattern(t *testing.T) {
	t.Parallel()

	errs := forms.Login{}.Validate()
	require.Equal(t, "Email is required.", errs.Get("email"))
	require.Equal(t, "Password is required.", errs.Get("password"))
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	t.Parallel()

	form := forms.Register{
		Email:           "chris@chrisperko.net",
		FirstName:       "Chris",
		LastName:        "Perko",
		Password:        "passw",
		ConfirmPassword: "passw",
	}
	errs := form.Validate()
	require.False(t, errs.Valid())
	require.Equal(t, "Password must be at least 8 characters.", errs.Get("password"))
	require.Len(t, errs, 1)
}

func TestRegisterNameRules(t *testing.T) {
	t.Parallel()

	base := forms.Register{
		Email:           "anne@example.com",
		Password:        "password1",
		ConfirmPassword: "password1",
	}

	valid := []string{"Anne", "O'Neil", "Jean-Luc", "Bob"}
	for _, name := range valid {
		form := base
		form.FirstName = name
		form.LastName = name
		require.True(t, form.Validate().Valid(), "expected %q to pass", name)
	}

	invalid := []string{"Al", "Anne-", "Mar1a", "Jean--Luc", "Anne Marie"}
	for _, name := range invalid {
		form := base
		form.FirstName = name
		form.LastName = "Smith"
		errs := form.Validate()
		require.True(t, errs.Has("first_name"), "expected %q to fail", name)
		require.False(t, errs.Has("last_name"))
	}
}

func TestRegisterDoesNotComparePasswords(t *testing.T) {
	t.Parallel()

	form := forms.Register{
		Email:           "anne@example.com",
		FirstName:       "Anne",
		LastName:        "Smith",
		Password:        "password1",
		ConfirmPassword: "different1",
	}
	require.True(t, form.Validate().Valid())
}

func TestRegisterEmailPatternRejectsLiteralS(t *testing.T) {
	t.Parallel()

	// "S" is not part of the local-part character class.
	form := forms.Register{
		Email:           "ANNE@EXAMPLE.COM",
		FirstName:       "Anne",
		LastName:        "Smith",
		Password:        "password1",
		ConfirmPassword: "password1",
	}
	require.True(t, form.Validate().Has("email"))
	require.False(t, forms.EmailPattern.MatchString("S@S.S"))
}

func TestFromValuesNormalisesInput(t *testing.T) {
	t.Parallel()

	values := url.Values{}
	values.Set("email", "  chris@chrisperko.net ")
	values.Set("password", " spaced password ")
	values.Set("first_name", " Chris")
	values.Set("last_name", "Perko ")
	values.Set("confirm_password", " spaced password ")

	login := forms.LoginFromValues(values)
	require.Equal(t, "chris@chrisperko.net", login.Email)
	require.Equal(t, " spaced password ", login.Password)

	reg := forms.RegisterFromValues(values)
	require.Equal(t, "Chris", reg.FirstName)
	require.Equal(t, "Perko", reg.LastName)
	require.Equal(t, " spaced password ", reg.ConfirmPassword)
	require.True(t, reg.Validate().Valid())
}
