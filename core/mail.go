package core

import (
	"bytes"
	"encoding/base64"
	"fmt"
	htmltmpl "html/template"
	"io"
	"net/http"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

const (
	textExt = ".txt"
	htmlExt = ".gohtml"
)

// executor is satisfied by both *texttmpl.Template and *htmltmpl.Template.
type executor interface {
	Execute(w io.Writer, data interface{}) error
}

var (
	// templates maps a template name to its parsed variants, keyed by extension.
	templates   map[string]map[string]executor
	templatesMu sync.RWMutex
)

type (
	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // plain text, bypasses the templates
		Attachments []Attachment

		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// TemplateContext is what every email template receives; Data is the message's TemplateData.
	TemplateContext struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func lookupTemplate(name, ext string) (executor, bool) {
	templatesMu.RLock()
	defer templatesMu.RUnlock()
	tmpl, ok := templates[name][ext]
	return tmpl, ok
}

func execute(name, ext string, data TemplateContext) (string, error) {
	tmpl, ok := lookupTemplate(name, ext)
	if !ok {
		return "", nil
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "executing %s%s", name, ext)
	}
	return buf.String(), nil
}

// Render fills TextContent and HTMLContent from BodyStr or the named templates.
func (m *EmailMessage) Render(conf *Config) (err error) {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}

	data := TemplateContext{AppName: conf.AppName, FrontendBaseURL: conf.FrontendBaseURL, Data: m.TemplateData}
	if m.TextContent, err = execute(m.TemplateName, textExt, data); err != nil {
		return err
	}
	m.HTMLContent, err = execute(m.TemplateName, htmlExt, data)
	return err
}

// Attach base64-encodes r. The content type is sniffed unless given.
func (m *EmailMessage) Attach(r io.Reader, filename string, contentType ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrapf(err, "reading attachment %s", filename)
	}

	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	enc := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err = enc.Write(content); err != nil {
		return errors.Wrap(err, "encoding attachment")
	}
	if err = enc.Close(); err != nil {
		return errors.Wrap(err, "encoding attachment")
	}

	at.ContentType = http.DetectContentType(content)
	if len(contentType) > 0 {
		at.ContentType = contentType[0]
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0
}
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// Sendable reports whether the rendered message has somewhere to go and something to say.
func (m *EmailMessage) Sendable() bool {
	return m.HasRecipients() && (m.HasContent() || m.HasAttachments())
}

func parseTemplate(dir, fp, ext string, strict bool) (executor, error) {
	layout := filepath.Join(dir, "_base"+ext)
	if ext == textExt {
		tmpl, err := texttmpl.ParseFiles(layout, fp)
		if err == nil && strict {
			tmpl = tmpl.Option("missingkey=error")
		}
		return tmpl, err
	}
	tmpl, err := htmltmpl.ParseFiles(layout, fp)
	if err == nil && strict {
		tmpl = tmpl.Option("missingkey=error")
	}
	return tmpl, err
}

// ParseEmailTemplates loads `assets/templates/email/*.{txt,gohtml}`, each one extending its `_base` layout.
// Templates failing to parse are logged and skipped.
func ParseEmailTemplates(conf *Config, logger Logger) {
	dir := filepath.Join(conf.WorkDir, "assets", "templates", "email")
	fps, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		logger.Error(fmt.Sprintf("parsing email templates: %v", err), err)
		return
	}

	parsed := make(map[string]map[string]executor)
	for _, fp := range fps {
		fname := filepath.Base(fp)
		ext := filepath.Ext(fname)
		if strings.HasPrefix(fname, "_") || (ext != textExt && ext != htmlExt) {
			continue
		}

		tmpl, err := parseTemplate(dir, fp, ext, conf.Debug || conf.TestMode)
		if err != nil {
			logger.Error(fmt.Sprintf("parsing email template %s: %v", fname, err), err)
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		if parsed[name] == nil {
			parsed[name] = make(map[string]executor)
		}
		parsed[name][ext] = tmpl
	}

	templatesMu.Lock()
	templates = parsed
	templatesMu.Unlock()
}
