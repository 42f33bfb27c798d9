package email

import (
	"bytes"
	"html/template"
)

// content is escaped and rendered with white-space: pre-line, so plain text
// line breaks survive.
var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Selah | Contemplative Technology</title>
  <style>
    body { font-family: 'Inter', -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; line-height: 1.618; color: #0a0a0a; background: #fafafa; margin: 0; padding: 20px; }
    .container { max-width: 600px; margin: 0 auto; padding: 2rem; background: white; border-radius: 12px; box-shadow: 0 10px 40px rgba(0,0,0,0.1); }
    .logo { text-align: center; margin-bottom: 2rem; }
    .logo h1 { font-size: 1.5rem; color: #3b82f6; margin: 0; }
    .content { white-space: pre-line; margin: 1.5rem 0; }
    .footer { margin-top: 2rem; padding-top: 2rem; border-top: 1px solid #e5e7eb; text-align: center; color: #6b7280; font-size: 0.875rem; }
    @media (max-width: 600px) { .container { padding: 1rem; margin: 0 10px; } }
  </style>
</head>
<body>
  <div class="container">
    <div class="logo">
      <h1>🪨 SELAH 🪨</h1>
      <p style="color: #6b7280; margin: 0.5rem 0 0 0;">You are here</p>
    </div>
    <div class="content">{{.}}</div>
    <div class="footer">
      Built with reverence by Ahiya &amp; Professor Oded Maimon<br>
      <em>Technology that breathes with you</em>
    </div>
  </div>
</body>
</html>
`))

func renderHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, content); err != nil {
		return "", err
	}
	return buf.String(), nil
}
