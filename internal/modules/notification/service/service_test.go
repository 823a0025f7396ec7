package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lintas.id/aidesk/internal/entity"
	ticketRepo "lintas.id/aidesk/internal/modules/ticket/repository"
)

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html})
	return m.err
}

// awaitingRepo stubs out only the digest query; the notifier touches
// nothing else on the repository.
type awaitingRepo struct {
	ticketRepo.TicketRepository
	tickets []entity.Ticket
	err     error
}

func (r *awaitingRepo) FindAwaitingAdmin(ctx context.Context) ([]entity.Ticket, error) {
	return r.tickets, r.err
}

func TestNotifyReplyTargets(t *testing.T) {
	ticket := &entity.Ticket{
		ID:      uuid.New(),
		Email:   "owner@example.com",
		Subject: "Login issue",
	}

	t.Run("admin reply mails the ticket owner", func(t *testing.T) {
		mail := &fakeMailer{}
		n := NewNotifier(mail, nil, "support@aidesk.local")

		n.NotifyReply(context.Background(), ticket, &entity.TicketReply{
			Sender:     entity.SenderAdmin,
			SenderName: "Agent Smith",
			Message:    "We fixed it.",
		})

		require.Len(t, mail.sent, 1)
		assert.Equal(t, "owner@example.com", mail.sent[0].To)
		assert.Contains(t, mail.sent[0].Subject, "Support replied")
	})

	t.Run("user reply mails the support address", func(t *testing.T) {
		mail := &fakeMailer{}
		n := NewNotifier(mail, nil, "support@aidesk.local")

		n.NotifyReply(context.Background(), ticket, &entity.TicketReply{
			Sender:     entity.SenderUser,
			SenderName: "Jordan",
			Message:    "Still broken for me.",
		})

		require.Len(t, mail.sent, 1)
		assert.Equal(t, "support@aidesk.local", mail.sent[0].To)
	})
}

func TestNotifyReplySanitizesContent(t *testing.T) {
	mail := &fakeMailer{}
	n := NewNotifier(mail, nil, "support@aidesk.local")

	n.NotifyReply(context.Background(), &entity.Ticket{Email: "owner@example.com"}, &entity.TicketReply{
		Sender:     entity.SenderAdmin,
		SenderName: "Agent",
		Message:    `<script>alert("x")</script>all sorted`,
	})

	require.Len(t, mail.sent, 1)
	assert.NotContains(t, mail.sent[0].HTML, "<script>")
	assert.Contains(t, mail.sent[0].HTML, "all sorted")
}

func TestNotifyNewTicketSwallowsMailerFailure(t *testing.T) {
	mail := &fakeMailer{err: errors.New("smtp down")}
	n := NewNotifier(mail, nil, "support@aidesk.local")

	// Must not panic or propagate; the method has no error return.
	n.NotifyNewTicket(context.Background(), &entity.Ticket{
		ID:      uuid.New(),
		Email:   "owner@example.com",
		Subject: "Anything",
		Message: "Hello",
	})

	assert.Len(t, mail.sent, 1)
}

func TestSendDigest(t *testing.T) {
	t.Run("skips when nothing is waiting", func(t *testing.T) {
		mail := &fakeMailer{}
		n := NewNotifier(mail, &awaitingRepo{}, "support@aidesk.local")

		require.NoError(t, n.SendDigest(context.Background()))
		assert.Empty(t, mail.sent)
	})

	t.Run("lists waiting tickets", func(t *testing.T) {
		mail := &fakeMailer{}
		n := NewNotifier(mail, &awaitingRepo{tickets: []entity.Ticket{
			{Subject: "First", Email: "a@example.com"},
			{Subject: "Second", Email: "b@example.com"},
		}}, "support@aidesk.local")

		require.NoError(t, n.SendDigest(context.Background()))
		require.Len(t, mail.sent, 1)
		assert.Equal(t, "support@aidesk.local", mail.sent[0].To)
		assert.Contains(t, mail.sent[0].Subject, "2 ticket(s)")
		assert.Contains(t, mail.sent[0].HTML, "First")
		assert.Contains(t, mail.sent[0].HTML, "Second")
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		mail := &fakeMailer{}
		n := NewNotifier(mail, &awaitingRepo{err: errors.New("db gone")}, "support@aidesk.local")

		require.Error(t, n.SendDigest(context.Background()))
		assert.Empty(t, mail.sent)
	})
}
