package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"jobsite/internal/domain/user"
)

type recordingMailer struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return m.err
}

func TestWelcomeEmail(t *testing.T) {
	mailer := &recordingMailer{}
	notifier := NewNotifier(mailer)
	account := user.User{Email: "jane@example.com", FirstName: "Jane", LastName: "<Doe>", Role: user.RoleRecruiter}

	if err := notifier.Welcome(context.Background(), account); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(mailer.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(mailer.msgs))
	}
	msg := mailer.msgs[0]
	if msg.To != "jane@example.com" || msg.Subject != welcomeSubject {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	if !strings.Contains(msg.Text, "Jane <Doe>") || !strings.Contains(msg.Text, "Recruiter") {
		t.Fatalf("unexpected text body %q", msg.Text)
	}
	if !strings.Contains(msg.HTML, "Jane &lt;Doe&gt;") {
		t.Fatalf("expected escaped html body, got %q", msg.HTML)
	}
}

func TestPasswordResetEmailCarriesLink(t *testing.T) {
	mailer := &recordingMailer{}
	notifier := NewNotifier(mailer)
	link := "http://127.0.0.1:8000/auth/reset-password?token=abc&uid=123"
	account := user.User{Email: "sam@example.com", Username: "sam"}

	if err := notifier.PasswordReset(context.Background(), account, link); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	msg := mailer.msgs[0]
	if !strings.Contains(msg.Text, link) || !strings.Contains(msg.Text, "Hi sam") {
		t.Fatalf("unexpected text body %q", msg.Text)
	}
	if !strings.Contains(msg.HTML, "token=abc&amp;uid=123") {
		t.Fatalf("expected link in html body, got %q", msg.HTML)
	}
}

func TestNotifierPropagatesMailerError(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	if err := NewNotifier(mailer).Welcome(context.Background(), user.User{Email: "a@b.c"}); err == nil {
		t.Fatal("expected error")
	}
}
