package mail

import (
	"bytes"
	"html/template"
	"strings"
)

type templateData struct {
	Name  string
	Token string
	URL   string
}

var confirmationHTML = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="en">
  <body style="font-family: Arial, sans-serif; background-color: #f9fafb;">
    <h1 style="color: #111827;">UpTask</h1>
    <p>Hi <strong>{{.Name}}</strong>,</p>
    <p>Thanks for signing up. Enter the following code to confirm your account:</p>
    <p style="font-size: 28px; font-weight: 700; letter-spacing: 4px;">{{.Token}}</p>
    <p><a href="{{.URL}}">Confirm your account</a></p>
    <p style="color: #6b7280;">The code expires in 10 minutes. If you did not create an account you can ignore this message.</p>
  </body>
</html>`))

var resetHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html lang="en">
  <body style="font-family: Arial, sans-serif; background-color: #f9fafb;">
    <h1 style="color: #111827;">UpTask</h1>
    <p>Hi <strong>{{.Name}}</strong>,</p>
    <p>We received a request to reset your password. Use this code:</p>
    <p style="font-size: 28px; font-weight: 700; letter-spacing: 4px;">{{.Token}}</p>
    <p><a href="{{.URL}}">Set a new password</a></p>
    <p style="color: #6b7280;">The code expires in 10 minutes. If you did not ask for a reset, nothing changes.</p>
  </body>
</html>`))

func render(t *template.Template, d templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func plainText(intro string, d templateData) string {
	var b strings.Builder
	b.WriteString("Hi " + d.Name + ",\n\n")
	b.WriteString(intro + "\n\n")
	b.WriteString("    " + d.Token + "\n\n")
	b.WriteString(d.URL + "\n\n")
	b.WriteString("The code expires in 10 minutes.\n")
	return b.String()
}
