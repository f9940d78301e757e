package notify

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	texttemplate "text/template"

	"jobsite/internal/domain/user"
)

const (
	welcomeSubject = "Welcome to Job Portal"
	resetSubject   = "Password Reset Request"
)

var (
	welcomeText = texttemplate.Must(texttemplate.New("welcome").Parse(`Hi {{.Name}},

Welcome to Job Portal! Your {{.Role}} account has been created.

Thank you for joining us.
`))
	welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome").Parse(`<p>Hi {{.Name}},</p>
<p>Welcome to Job Portal! Your {{.Role}} account has been created.</p>
<p>Thank you for joining us.</p>
`))
	resetText = texttemplate.Must(texttemplate.New("reset").Parse(`Hi {{.Name}},

We received a request to reset your password. Use the link below to choose a new one:

{{.Link}}

The link can be used once and expires soon. If you did not request a reset you can ignore this email.
`))
	resetHTML = htmltemplate.Must(htmltemplate.New("reset").Parse(`<p>Hi {{.Name}},</p>
<p>We received a request to reset your password.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>The link can be used once and expires soon. If you did not request a reset you can ignore this email.</p>
`))
)

type emailData struct {
	Name string
	Role string
	Link string
}

// Notifier renders account emails and hands them to a Mailer.
type Notifier struct {
	mailer Mailer
}

func NewNotifier(mailer Mailer) *Notifier {
	return &Notifier{mailer: mailer}
}

func (n *Notifier) Welcome(ctx context.Context, account user.User) error {
	data := emailData{Name: displayName(account), Role: account.Role.Display()}
	msg, err := render(account.Email, welcomeSubject, welcomeText, welcomeHTML, data)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg)
}

func (n *Notifier) PasswordReset(ctx context.Context, account user.User, link string) error {
	data := emailData{Name: displayName(account), Link: link}
	msg, err := render(account.Email, resetSubject, resetText, resetHTML, data)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg)
}

func render(to, subject string, text *texttemplate.Template, html *htmltemplate.Template, data emailData) (Message, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := text.Execute(&textBuf, data); err != nil {
		return Message{}, err
	}
	if err := html.Execute(&htmlBuf, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, Text: textBuf.String(), HTML: htmlBuf.String()}, nil
}

func displayName(account user.User) string {
	if name := account.FullName(); name != "" {
		return name
	}
	return account.Username
}
