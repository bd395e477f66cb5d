package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/trezcool/alama/fs"
)

const emailTemplatesDir = "templates/email"

type (
	// emailTemplate is one named email; either variant may be missing.
	emailTemplate struct {
		text *texttmpl.Template // <name>.txt inside _base.txt
		html *htmltmpl.Template // <name>.gohtml inside _base.gohtml
	}

	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is what email templates are executed with.
	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

var emailTemplates = struct {
	sync.RWMutex
	byName  map[string]*emailTemplate
	appName string
}{appName: "Alama"}

// ParseEmailTemplates loads the embedded email templates.
// Files starting with "_" are layouts; a broken template is logged and skipped.
func ParseEmailTemplates(conf *Config, logger Logger) {
	fps, err := fs.Glob(appfs.FS, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		logger.Error("core.ParseEmailTemplates", errors.Wrap(err, "listing templates"))
		return
	}
	strict := conf.Debug || conf.TestMode

	byName := make(map[string]*emailTemplate)
	get := func(name string) *emailTemplate {
		if byName[name] == nil {
			byName[name] = new(emailTemplate)
		}
		return byName[name]
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		switch ext := path.Ext(fname); ext {
		case ".txt":
			tmpl, err := texttmpl.ParseFS(appfs.FS, path.Join(emailTemplatesDir, "_base.txt"), fp)
			if err != nil {
				logger.Error("core.ParseEmailTemplates", errors.Wrapf(err, "parsing %s", fname))
				continue
			}
			if strict {
				tmpl.Option("missingkey=error")
			}
			get(strings.TrimSuffix(fname, ext)).text = tmpl
		case ".gohtml":
			tmpl, err := htmltmpl.ParseFS(appfs.FS, path.Join(emailTemplatesDir, "_base.gohtml"), fp)
			if err != nil {
				logger.Error("core.ParseEmailTemplates", errors.Wrapf(err, "parsing %s", fname))
				continue
			}
			if strict {
				tmpl.Option("missingkey=error")
			}
			get(strings.TrimSuffix(fname, ext)).html = tmpl
		}
	}

	emailTemplates.Lock()
	emailTemplates.byName = byName
	emailTemplates.appName = conf.AppName
	emailTemplates.Unlock()
}

// lookupEmailTemplate returns nil for unknown names.
func lookupEmailTemplate(name string) (*emailTemplate, ContextData) {
	emailTemplates.RLock()
	defer emailTemplates.RUnlock()
	return emailTemplates.byName[name], ContextData{AppName: emailTemplates.appName}
}

// Render fills TextContent and HTMLContent. BodyStr wins over the text template.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	tmpl, data := lookupEmailTemplate(m.TemplateName)
	if tmpl == nil {
		return nil
	}
	data.Data = m.TemplateData

	var buf bytes.Buffer
	if tmpl.text != nil && m.BodyStr == "" {
		if err := tmpl.text.Execute(&buf, data); err != nil {
			return errors.Wrap(err, "rendering text")
		}
		m.TextContent = buf.String()
	}
	if tmpl.html != nil {
		buf.Reset()
		if err := tmpl.html.Execute(&buf, data); err != nil {
			return errors.Wrap(err, "rendering html")
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" || m.HTMLContent != "" }
