package notify

import (
	"bytes"
	"html/template"

	"github.com/Masterminds/sprig"
)

const welcomeSubject = "Welcome to Kamari"

const welcomeTemplate = `<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; background-color: #f5f5f5; margin: 0; padding: 0; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; background-color: #ffffff; border-radius: 10px; }
    .header { text-align: center; background-color: #007BFF; color: #ffffff; padding: 20px 0; border-radius: 10px 10px 0 0; }
    .content { padding: 20px; }
    .content img { max-width: 100%; height: auto; display: block; margin: 0 auto; }
    .button, .unsubscribe, .footer { text-align: center; margin-top: 20px; }
    .footer { font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>Welcome to Kamari{{ with .FirstName }}, {{ . | trim | title }}{{ end }}</h1></div>
    <div class="content">
      <img src="https://jammanager.s3.us-east-2.amazonaws.com/kamari.png" alt="Jam Manager Logo">
      <div class="button">
        <a href="{{ .AppURL }}/" style="background-color: #007BFF; color: #ffffff; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Visit Jam Manager</a>
      </div>
    </div>
    <div class="unsubscribe"><a href="{{ .AppURL }}/unsubscribe/{{ .Email }}">Unsubscribe</a></div>
    <div class="footer"><a href="{{ .AppURL }}/terms-and-conditions">Terms</a></div>
  </div>
</body>
</html>`

var welcome = template.Must(template.New("welcome").Funcs(sprig.HtmlFuncMap()).Parse(welcomeTemplate))

type welcomeData struct {
	Email     string
	FirstName string
	AppURL    string
}

func renderWelcome(d welcomeData) (string, error) {
	var buf bytes.Buffer
	if err := welcome.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
