// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

// Package mail sends outbound email over SMTP.
package mail

import (
	"context"
	"net"
	"net/smtp"

	"github.com/samber/oops"
)

// SMTPMailer sends plaintext mail through a single SMTP relay using PLAIN
// auth. Sends are synchronous with no internal retry; a failure surfaces
// immediately to the caller.
type SMTPMailer struct {
	addr string // host:port
	host string
	auth smtp.Auth
	from string
}

// NewSMTPMailer creates an SMTPMailer. addr must be host:port; user and
// password authenticate against the relay; from is the envelope sender.
func NewSMTPMailer(addr, user, password, from string) (*SMTPMailer, error) {
	if addr == "" || user == "" || password == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("SMTP address and credentials are required")
	}
	if from == "" {
		from = user
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").
			With("addr", addr).
			Errorf("SMTP address must be host:port")
	}

	return &SMTPMailer{
		addr: addr,
		host: host,
		auth: smtp.PlainAuth("", user, password, host),
		from: from,
	}, nil
}

// Send delivers a plaintext message to a single recipient. The context is
// consulted before dialing; net/smtp does not support mid-send
// cancellation.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("MAIL_SEND_CANCELED").Wrap(err)
	}

	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n\r\n" +
		body + "\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("relay", m.addr).
			With("to", to).
			Wrap(err)
	}
	return nil
}
