package emailsvc

import (
	"fmt"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

// consoleTransport writes the MIME form of each message to the log.
type consoleTransport struct {
	from       mail.Address
	subjPrefix string
	logger     core.Logger
	quiet      bool
	now        func() time.Time
}

func newConsoleTransport(conf *core.Config, logger core.Logger) *consoleTransport {
	return &consoleTransport{
		from:       conf.DefaultFromEmail,
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		now:        time.Now,
	}
}

func (ct *consoleTransport) deliver(msg core.EmailMessage) error {
	body, err := ct.compose(msg)
	if err != nil {
		return err
	}
	if !ct.quiet {
		ct.logger.Info(body)
	}
	return nil
}

// compose renders msg as a multipart/alternative email with a text part and, if any, an html part.
func (ct *consoleTransport) compose(msg core.EmailMessage) (string, error) {
	var body strings.Builder
	altW := multipart.NewWriter(&body)

	headers := []string{
		"From: " + ct.from.String(),
		"To: " + joinAddresses(msg.To),
		"Subject: " + ct.subjPrefix + msg.Subject,
		"Date: " + ct.now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + altW.Boundary(),
	}
	body.WriteString(strings.Join(headers, "\r\n") + "\r\n\r\n")

	parts := []struct{ mime, content string }{
		{mime: "text/plain", content: msg.TextContent},
		{mime: "text/html", content: msg.HTMLContent},
	}
	for _, p := range parts {
		if p.content == "" && p.mime == "text/html" {
			continue
		}
		w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {p.mime + "; charset=utf-8"}})
		if err != nil {
			return "", errors.Wrapf(err, "creating %s part", p.mime)
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", p.content)
	}
	if err := altW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart writer")
	}
	return body.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
