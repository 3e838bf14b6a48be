package config

import "os"

// Environment controls how the study-session cookie is issued:
// COOKIE_DOMAIN scopes it to the deployment domain, and an unset value
// means local development, where the cookie stays insecure on
// localhost.
type Environment struct {
	IsDevelopment bool
	Domain        string
	CookieSecure  bool
}

var Env Environment

func init() {
	domain := os.Getenv("COOKIE_DOMAIN")

	// No domain means we're running locally
	isDev := domain == ""
	if isDev {
		domain = "localhost"
	}

	Env = Environment{
		IsDevelopment: isDev,
		Domain:        domain,
		CookieSecure:  !isDev,
	}
}
