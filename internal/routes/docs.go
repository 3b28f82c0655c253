package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sinoficio13/gym/internal/config"
)

const docsPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Gym API</title>
<style>
body{font-family:sans-serif;max-width:720px;margin:2rem auto;padding:0 1rem}
table{border-collapse:collapse;width:100%}
td,th{border:1px solid #ccc;padding:.35rem .6rem;text-align:left;font-size:.9rem}
code{font-family:monospace}
</style>
</head>
<body>
<h1>Gym API</h1>
<p>Development reference of the HTTP surface. Times are <code>HH:MM</code> in the gym timezone, dates are <code>YYYY-MM-DD</code>.</p>
<table>
<tr><th>Method</th><th>Path</th><th>Purpose</th></tr>
<tr><td>POST</td><td>/api/auth/register</td><td>Create a client account</td></tr>
<tr><td>POST</td><td>/api/auth/login</td><td>Exchange credentials for a token</td></tr>
<tr><td>GET</td><td>/api/auth/me</td><td>Current account</td></tr>
<tr><td>GET</td><td>/api/v1/availability?date=</td><td>Slot verdicts for one date</td></tr>
<tr><td>POST</td><td>/api/v1/bookings</td><td>Book a slot</td></tr>
<tr><td>GET</td><td>/api/v1/bookings?timeframe=</td><td>Own bookings</td></tr>
<tr><td>PUT</td><td>/api/v1/bookings/:id/cancel</td><td>Cancel own booking</td></tr>
<tr><td>GET</td><td>/api/v1/profile</td><td>Own profile and subscription</td></tr>
<tr><td>PUT</td><td>/api/v1/profile</td><td>Update own profile</td></tr>
<tr><td>GET</td><td>/api/v1/admin/availability?date=</td><td>Slot verdicts with occupancy</td></tr>
<tr><td>GET</td><td>/api/v1/admin/appointments?from=&amp;to=</td><td>Calendar range</td></tr>
<tr><td>POST</td><td>/api/v1/admin/appointments</td><td>Create appointment for a client</td></tr>
<tr><td>PUT</td><td>/api/v1/admin/appointments/:id</td><td>Reschedule appointment</td></tr>
<tr><td>DELETE</td><td>/api/v1/admin/appointments/:id</td><td>Delete appointment</td></tr>
<tr><td>GET</td><td>/api/v1/admin/schedule</td><td>Weekly offer template</td></tr>
<tr><td>POST</td><td>/api/v1/admin/schedule</td><td>Add template entry</td></tr>
<tr><td>DELETE</td><td>/api/v1/admin/schedule/:id</td><td>Remove template entry</td></tr>
<tr><td>GET</td><td>/api/v1/admin/blocks?from=&amp;to=</td><td>Blocked slots in range</td></tr>
<tr><td>POST</td><td>/api/v1/admin/blocks/toggle</td><td>Block or unblock a slot</td></tr>
<tr><td>GET</td><td>/api/v1/admin/clients</td><td>Client roster</td></tr>
<tr><td>GET</td><td>/api/v1/ws?token=</td><td>Change event stream (websocket)</td></tr>
</table>
</body>
</html>
`

// registerDocsRoutes exposes the endpoint reference in development
// builds only.
func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentSecurityPolicy, "default-src 'none'; style-src 'unsafe-inline'")
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(docsPage)
	})

	return nil
}
