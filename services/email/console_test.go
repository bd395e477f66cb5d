package emailsvc

import (
	"errors"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/testutil"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	logger := new(testutil.Logger)
	core.ParseEmailTemplates(conf, logger)
	require.Empty(t, logger.Errors)

	to := []mail.Address{{Name: "Awe", Address: "awe@test.cd"}}
	svc := NewConsoleServiceMock(conf, logger)
	svc.SendMessages(
		&core.EmailMessage{
			To:           to,
			Subject:      "Welcome!",
			TemplateName: "welcome",
			TemplateData: map[string]string{"Name": "Awe", "Email": "awe@test.cd"},
		},
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "hello"},
		&core.EmailMessage{To: to, Subject: "unknown template", TemplateName: "lol"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "Welcome!", sent[0].Subject)
	assert.Contains(t, sent[0].HTMLContent, "awe@test.cd")
	assert.Equal(t, "hello", sent[1].TextContent)
	assert.Empty(t, logger.Errors)
}

func Test_consoleTransport_compose(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	ct := newConsoleTransport(conf, new(testutil.Logger))
	ct.now = func() time.Time { return time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC) }

	body, err := ct.compose(core.EmailMessage{
		To:          []mail.Address{{Address: "a@test.cd"}, {Address: "b@test.cd"}},
		Subject:     "Hi",
		TextContent: "text body",
		HTMLContent: "<p>html body</p>",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "From: <noreply@localhost>\r\n")
	assert.Contains(t, body, "Subject: [Alama] Hi\r\n")
	assert.Contains(t, body, "To: <a@test.cd>, <b@test.cd>\r\n")
	assert.Contains(t, body, "Date: Thu, 04 Mar 2021 05:06:07 +0000\r\n")
	assert.Contains(t, body, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, body, "text body")
	assert.Contains(t, body, "<p>html body</p>")
	assert.Equal(t, 2, strings.Count(body, "charset=utf-8"))

	body, err = ct.compose(core.EmailMessage{To: []mail.Address{{Address: "a@test.cd"}}, Subject: "Hi", TextContent: "text only"})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(body, "charset=utf-8"))
}

type failingTransport struct{ err error }

func (ft failingTransport) deliver(core.EmailMessage) error { return ft.err }

func Test_mailer_send(t *testing.T) {
	logger := new(testutil.Logger)
	m := &mailer{transport: failingTransport{err: errors.New("boom")}, logger: logger, name: "test"}

	sent, err := m.send(&core.EmailMessage{To: []mail.Address{{Address: "a@test.cd"}}, BodyStr: "hi"})
	assert.False(t, sent)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"emailsvc.test.send"}, logger.Errors)

	sent, err = m.send(&core.EmailMessage{BodyStr: "no recipients"})
	assert.False(t, sent)
	assert.NoError(t, err)
}
