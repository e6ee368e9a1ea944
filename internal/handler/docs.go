package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// RouteDoc describes one endpoint on the /docs page.
type RouteDoc struct {
	Method      string
	Path        string
	Access      string
	Description string
}

// Routes is the reference shown at /docs.
var Routes = []RouteDoc{
	{"POST", "/auth/register", "public", "Create an account. Body: name, email, password. Returns {token}."},
	{"POST", "/auth/login", "public", "Exchange email and password for {token}."},
	{"GET", "/auth/profile", "user", "Current user."},
	{"GET", "/auth/me", "user", "Alias of /auth/profile."},
	{"PUT", "/auth/profile", "user", "Update own name, email or password."},
	{"PUT", "/auth/password", "user", "Change password. Body: currentPassword, newPassword."},
	{"GET", "/admin/dashboard", "admin", "Administrator greeting."},
	{"GET", "/users", "admin", "List users."},
	{"POST", "/users", "admin", "Create a user with a role."},
	{"GET", "/users/{id}", "admin", "Get one user."},
	{"PUT", "/users/{id}", "admin", "Update a user, including role."},
	{"DELETE", "/users/{id}", "admin", "Delete a user."},
	{"POST", "/upload/profile-picture", "user", "Multipart field file: JPEG, PNG, GIF or WEBP."},
	{"GET", "/files/{key...}", "public", "Stored file bytes."},
	{"GET", "/healthz", "public", "Liveness and database check."},
	{"GET", "/metrics", "public", "Prometheus metrics."},
}

// DocsPage renders the route reference as HTML.
func DocsPage(routes []RouteDoc) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, docsHead); err != nil {
			return err
		}
		for _, rt := range routes {
			row := "<tr><td class=\"m\">" + templ.EscapeString(rt.Method) +
				"</td><td><code>" + templ.EscapeString(rt.Path) +
				"</code></td><td>" + templ.EscapeString(rt.Access) +
				"</td><td>" + templ.EscapeString(rt.Description) + "</td></tr>\n"
			if _, err := io.WriteString(w, row); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, docsFoot)
		return err
	})
}

// HandleDocs serves the route reference page.
func HandleDocs() http.Handler {
	return templ.Handler(DocsPage(Routes))
}

const docsHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>taskdesk API</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
td, th { border-bottom: 1px solid #ddd; padding: .4rem .8rem; text-align: left; }
.m { font-weight: 600; }
</style>
</head>
<body>
<h1>taskdesk API</h1>
<p>Send <code>Authorization: Bearer &lt;token&gt;</code> to routes marked user or admin.</p>
<table>
<tr><th>Method</th><th>Path</th><th>Access</th><th>Description</th></tr>
`

const docsFoot = `</table>
</body>
</html>
`
