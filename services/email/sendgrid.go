package emailsvc

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/alama/core"
)

// sendgridTransport delivers through the SendGrid v3 mail send API.
type sendgridTransport struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
}

func newSendgridTransport(conf *core.Config) *sendgridTransport {
	return &sendgridTransport{
		client:     sendgrid.NewSendClient(conf.SendgridApiKey),
		from:       sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

// message builds one personalization holding every recipient.
func (st *sendgridTransport) message(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = st.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(st.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func (st *sendgridTransport) deliver(msg core.EmailMessage) error {
	res, err := st.client.Send(st.message(msg))
	if err != nil {
		return errors.Wrap(err, "sending email")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid rejected email: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
