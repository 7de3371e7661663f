package mail

import (
	"time"

	"github.com/flosch/pongo2/v6"
)

type template struct {
	name    string
	subject string
	body    *pongo2.Template
}

var verificationTemplate = &template{
	name:    "verification",
	subject: "Verify your email address",
	body: pongo2.Must(pongo2.FromString(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Welcome!</h2>
  <p>Hello {{ email }},</p>
  <p>Please confirm your email address to activate your account.</p>
  <p><a href="{{ link }}" style="background:#2563eb;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px;">Verify email</a></p>
  <p>This link expires in {{ minutes }} minutes. If you did not create an account, ignore this message.</p>
</body>
</html>`)),
}

var resetTemplate = &template{
	name:    "password-reset",
	subject: "Reset your password",
	body: pongo2.Must(pongo2.FromString(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Password reset</h2>
  <p>Hello {{ email }},</p>
  <p>We received a request to reset your password.</p>
  <p><a href="{{ link }}" style="background:#dc2626;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px;">Choose a new password</a></p>
  <p>This link expires in {{ minutes }} minutes. If you did not ask for a reset, your password stays unchanged.</p>
</body>
</html>`)),
}

func (t *template) render(email, link string, ttl time.Duration) (string, string, error) {
	body, err := t.body.Execute(pongo2.Context{
		"email":   email,
		"link":    link,
		"minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return "", "", err
	}
	return t.subject, body, nil
}
