package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaNotifierPublishesEvent(t *testing.T) {
	w := &fakeWriter{}
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	n := &KafkaNotifier{writer: w, now: func() time.Time { return at }}

	require.NoError(t, n.Notify(context.Background(), Message{To: "inbox@example.com", Subject: "New Loan Application", Body: "hi"}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "inbox@example.com", string(w.msgs[0].Key))

	var ev NotificationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "New Loan Application", ev.Subject)
	assert.True(t, ev.CreatedAt.Equal(at))
}

func TestKafkaNotifierWrapsErrors(t *testing.T) {
	n := &KafkaNotifier{writer: &fakeWriter{err: errors.New("broker down")}, now: time.Now}
	err := n.Notify(context.Background(), Message{To: "x@example.com"})
	assert.ErrorContains(t, err, "broker down")
}

func TestSMTPWithoutCredentialsIsNoop(t *testing.T) {
	var buf bytes.Buffer
	n := NewSMTPNotifier(SMTPConfig{Host: "localhost", Port: 25}, zerolog.New(&buf))

	require.NoError(t, n.Notify(context.Background(), Message{To: "x@example.com", Subject: "s"}))
	assert.Contains(t, buf.String(), "SMTP credentials not configured")
}

func TestSMTPCompose(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{FromName: "Study Loan", FromEmail: "noreply@example.com"}, zerolog.Nop())
	raw := string(n.compose(Message{To: "x@example.com", Subject: "Hello", Body: "<p>hi</p>", HTML: true}))

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, head, "From: Study Loan <noreply@example.com>")
	assert.Contains(t, head, "Content-Type: text/html; charset=UTF-8")
	assert.Equal(t, "<p>hi</p>", body)
}

func TestNewApplicationMessage(t *testing.T) {
	msg := NewApplicationMessage("applications@example.com", "", "jane@example.com", 7, []string{"loanDetails", "personalDetails"})

	assert.Equal(t, "applications@example.com", msg.To)
	assert.Equal(t, "New Loan Application", msg.Subject)
	assert.Contains(t, msg.Body, "Student jane@example.com (jane@example.com) submitted application #7")
	assert.Contains(t, msg.Body, "loanDetails, personalDetails")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewLogNotifier(zerolog.New(&buf)).Notify(context.Background(), Message{To: "x@example.com"}))
	assert.Contains(t, buf.String(), "x@example.com")
}
