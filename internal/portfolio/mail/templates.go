package mail

import (
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/verification.html.tmpl
var templateFS embed.FS

//go:embed templates/logo.png
var logoPNG []byte

var verificationTmpl = template.Must(
	template.ParseFS(templateFS, "templates/verification.html.tmpl"),
)

// VerificationData feeds the verification email template.
type VerificationData struct {
	FirstName     string
	CompletionURL string
	ExpiresAt     string
}

// RenderVerification produces the verification message for a recipient.
func RenderVerification(to, firstName, completionURL string, expiresAt time.Time) (Message, error) {
	var body strings.Builder
	err := verificationTmpl.Execute(&body, VerificationData{
		FirstName:     firstName,
		CompletionURL: completionURL,
		ExpiresAt:     expiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:         to,
		Subject:    "Verify your email address",
		HTMLBody:   body.String(),
		InlineLogo: logoPNG,
	}, nil
}
