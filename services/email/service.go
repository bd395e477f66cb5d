package emailsvc

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

// transport delivers one rendered message.
type transport interface {
	deliver(msg core.EmailMessage) error
}

// mailer renders messages and hands the deliverable ones to its transport, one goroutine per message.
type mailer struct {
	transport transport
	logger    core.Logger
	name      string
}

var _ core.EmailService = (*mailer)(nil)

// NewService picks SendGrid when an API key is configured, the console otherwise.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.SendgridApiKey != "" && !conf.TestMode {
		return &mailer{transport: newSendgridTransport(conf), logger: logger, name: "sendgrid"}
	}
	return &mailer{transport: newConsoleTransport(conf, logger), logger: logger, name: "console"}
}

func (m *mailer) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			_, _ = m.send(msg)
		}(msg)
	}
}

// send reports whether msg was delivered. Messages without recipients or content are skipped.
func (m *mailer) send(msg *core.EmailMessage) (bool, error) {
	if err := msg.Render(); err != nil {
		err = errors.Wrap(err, "rendering email")
		m.logger.Error("emailsvc."+m.name+".send", err)
		return false, err
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return false, nil
	}
	if err := m.transport.deliver(*msg); err != nil {
		m.logger.Error("emailsvc."+m.name+".send", err, map[string]interface{}{"subject": msg.Subject})
		return false, err
	}
	return true, nil
}

// ConsoleServiceMock composes messages synchronously and records the ones it would have sent.
type ConsoleServiceMock struct {
	mailer
	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*ConsoleServiceMock)(nil)

func NewConsoleServiceMock(conf *core.Config, logger core.Logger) *ConsoleServiceMock {
	ct := newConsoleTransport(conf, logger)
	ct.quiet = true
	return &ConsoleServiceMock{mailer: mailer{transport: ct, logger: logger, name: "console"}}
}

func (svc *ConsoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if sent, _ := svc.send(msg); sent {
			svc.mu.Lock()
			svc.sent = append(svc.sent, *msg)
			svc.mu.Unlock()
		}
	}
}

// SentMessages returns a copy of the messages sent so far.
func (svc *ConsoleServiceMock) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}
