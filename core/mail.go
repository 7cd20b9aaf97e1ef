package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	// MailTemplates holds the parsed email templates: <name>.txt and <name>.gohtml,
	// each extending _base.txt / _base.gohtml.
	MailTemplates struct {
		baseURL string
		cache   tmplCache
	}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		ReplyTo *mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// NewMailTemplates parses every template found in dir of fsys.
// In strict mode (debug/tests) missing keys are errors.
func NewMailTemplates(fsys fs.FS, dir, baseURL string, strict bool) (*MailTemplates, error) {
	mt := &MailTemplates{baseURL: baseURL, cache: make(tmplCache)}

	fps, err := fs.Glob(fsys, path.Join(dir, "*"))
	if err != nil {
		return nil, errors.Wrap(err, "listing email templates")
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := mt.cache[name]
		if !ok {
			entry = make(tmplCacheEntry)
			mt.cache[name] = entry
		}

		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(fsys, path.Join(dir, "_base.txt"), fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, path.Join(dir, "_base.gohtml"), fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		}
	}
	return mt, nil
}

func (mt *MailTemplates) get(name, ext string) (interface{}, bool) {
	if mt == nil {
		return nil, false
	}
	entry, ok := mt.cache[name]
	if !ok {
		return nil, false
	}
	tmpl, ok := entry[ext]
	return tmpl, ok
}

func (m *EmailMessage) getContextData(baseURL string) ContextData {
	return ContextData{
		FrontendBaseURL: baseURL,
		Data:            m.TemplateData,
	}
}

// Render fills TextContent and HTMLContent. BodyStr wins over a text template.
func (m *EmailMessage) Render(mt *MailTemplates) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	if _, ok := mt.get(m.TemplateName, ".txt"); !ok {
		if _, ok := mt.get(m.TemplateName, ".gohtml"); !ok {
			return errors.Errorf("email template %q not found", m.TemplateName)
		}
	}

	var baseURL string
	if mt != nil {
		baseURL = mt.baseURL
	}
	data := m.getContextData(baseURL)

	if m.BodyStr == "" {
		if tmpl, ok := mt.get(m.TemplateName, ".txt"); ok {
			var buff bytes.Buffer
			if err := tmpl.(*texttmpl.Template).ExecuteTemplate(&buff, "base", data); err != nil {
				return errors.Wrap(err, "rendering text email")
			}
			m.TextContent = buff.String()
		}
	}
	if tmpl, ok := mt.get(m.TemplateName, ".gohtml"); ok {
		var buff bytes.Buffer
		if err := tmpl.(*htmltmpl.Template).ExecuteTemplate(&buff, "base", data); err != nil {
			return errors.Wrap(err, "rendering html email")
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }
