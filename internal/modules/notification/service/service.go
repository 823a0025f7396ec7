package service

import (
	"context"
	"fmt"
	"log"

	"github.com/microcosm-cc/bluemonday"
	"lintas.id/aidesk/internal/entity"
	"lintas.id/aidesk/internal/modules/notification/mailer"
	ticketRepo "lintas.id/aidesk/internal/modules/ticket/repository"
)

// Notifier dispatches outbound email for ticket activity. Every method is
// fire-and-forget: failures are logged and swallowed, they never propagate
// to the write that triggered them.
type Notifier interface {
	NotifyNewTicket(ctx context.Context, ticket *entity.Ticket)
	// NotifyReply mails the party expected to respond next: the ticket
	// owner after an admin reply, the support address after a user reply.
	NotifyReply(ctx context.Context, ticket *entity.Ticket, reply *entity.TicketReply)
	SendDigest(ctx context.Context) error
}

type notifier struct {
	mail       mailer.Mailer
	tickets    ticketRepo.TicketRepository
	adminEmail string
	sanitizer  *bluemonday.Policy
}

func NewNotifier(mail mailer.Mailer, tickets ticketRepo.TicketRepository, adminEmail string) Notifier {
	return &notifier{
		mail:       mail,
		tickets:    tickets,
		adminEmail: adminEmail,
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

func (n *notifier) NotifyNewTicket(ctx context.Context, ticket *entity.Ticket) {
	if n.mail == nil {
		return
	}

	subject := fmt.Sprintf("[AIDesk] New ticket: %s", ticket.Subject)
	html := fmt.Sprintf(
		"<p>A new support ticket was opened by <strong>%s</strong>.</p><blockquote>%s</blockquote><p>Ticket ID: %s</p>",
		n.sanitizer.Sanitize(ticket.Email),
		n.sanitizer.Sanitize(ticket.Message),
		ticket.ID,
	)

	if err := n.mail.Send(ctx, n.adminEmail, subject, html); err != nil {
		log.Printf("failed to send new-ticket notification for %s: %v", ticket.ID, err)
	}
}

func (n *notifier) NotifyReply(ctx context.Context, ticket *entity.Ticket, reply *entity.TicketReply) {
	if n.mail == nil {
		return
	}

	to := n.adminEmail
	subject := fmt.Sprintf("[AIDesk] New reply on ticket: %s", ticket.Subject)
	if reply.Sender == entity.SenderAdmin {
		to = ticket.Email
		subject = fmt.Sprintf("[AIDesk] Support replied to your ticket: %s", ticket.Subject)
	}

	html := fmt.Sprintf(
		"<p><strong>%s</strong> wrote:</p><blockquote>%s</blockquote><p>Ticket ID: %s</p>",
		n.sanitizer.Sanitize(reply.SenderName),
		n.sanitizer.Sanitize(reply.Message),
		ticket.ID,
	)

	if err := n.mail.Send(ctx, to, subject, html); err != nil {
		log.Printf("failed to send reply notification for ticket %s: %v", ticket.ID, err)
	}
}

func (n *notifier) SendDigest(ctx context.Context) error {
	if n.mail == nil || n.tickets == nil {
		return nil
	}

	tickets, err := n.tickets.FindAwaitingAdmin(ctx)
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		return nil
	}

	html := "<p>Tickets waiting for a first response:</p><ul>"
	for _, t := range tickets {
		html += fmt.Sprintf("<li><strong>%s</strong> (%s), opened %s</li>",
			n.sanitizer.Sanitize(t.Subject),
			n.sanitizer.Sanitize(t.Email),
			t.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	html += "</ul>"

	subject := fmt.Sprintf("[AIDesk] %d ticket(s) awaiting response", len(tickets))
	return n.mail.Send(ctx, n.adminEmail, subject, html)
}
