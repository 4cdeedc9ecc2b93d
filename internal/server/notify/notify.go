// Package notify renders account e-mails and hands them to a Sender.
package notify

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/common"
)

// Message is a rendered plain-text e-mail.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers one message. Implementations wrap failures with
// common.ErrDelivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var (
	verificationTmpl = template.Must(template.New("verification").Parse(
		`Hello {{.Name}},

Welcome to {{.App}}! Your verification code is: {{.Code}}

The code expires in {{.TTL}}. If you did not create an account, ignore this message.
`))

	resetTmpl = template.Must(template.New("reset").Parse(
		`Hello {{.Name}},

We received a request to reset your {{.App}} password. Your reset code is: {{.Code}}

The code expires in {{.TTL}}. If you did not ask for a reset, ignore this message.
`))
)

type codeMail struct {
	App  string
	Name string
	Code string
	TTL  string
}

// Notifier sends the verification and password reset e-mails.
type Notifier struct {
	sender  Sender
	appName string
	codeTTL time.Duration
}

func NewNotifier(sender Sender, appName string, codeTTL time.Duration) *Notifier {
	return &Notifier{sender: sender, appName: appName, codeTTL: codeTTL}
}

func (n *Notifier) SendVerificationCode(ctx context.Context, to, name, code string) error {
	return n.send(ctx, to, "Verify your "+n.appName+" account", verificationTmpl, name, code)
}

func (n *Notifier) SendResetCode(ctx context.Context, to, name, code string) error {
	return n.send(ctx, to, "Reset your "+n.appName+" password", resetTmpl, name, code)
}

func (n *Notifier) send(ctx context.Context, to, subject string, tmpl *template.Template, name, code string) error {
	var body strings.Builder
	err := tmpl.Execute(&body, codeMail{App: n.appName, Name: name, Code: code, TTL: humanizeTTL(n.codeTTL)})
	if err != nil {
		return fmt.Errorf("%w: rendering %s: %v", common.ErrDelivery, tmpl.Name(), err)
	}
	return n.sender.Send(ctx, Message{To: to, Subject: subject, Body: body.String()})
}

func humanizeTTL(d time.Duration) string {
	switch {
	case d%time.Hour == 0 && d >= time.Hour:
		return fmt.Sprintf("%d hour(s)", int(d/time.Hour))
	case d%time.Minute == 0 && d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
