package emailsvc

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
)

var (
	sentMessages []core.EmailMessage
	sentMu       sync.Mutex
)

// ConsoleService writes every email, MIME encoded, to a standard logger instead of sending it.
type ConsoleService struct {
	conf   *core.Config
	logger core.Logger
	out    *log.Logger // nil discards the output
	inline bool
}

var _ core.EmailService = (*ConsoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &ConsoleService{conf: conf, logger: logger, out: log.Default()}
}

// NewConsoleServiceMock sends synchronously and only records the emails, see Sent.
func NewConsoleServiceMock(conf *core.Config, logger core.Logger) core.EmailService {
	return &ConsoleService{conf: conf, logger: logger, inline: true}
}

// Sent returns the emails sent so far by any console service.
func Sent() []core.EmailMessage {
	sentMu.Lock()
	defer sentMu.Unlock()
	return append([]core.EmailMessage(nil), sentMessages...)
}

func ResetSentMessages() {
	sentMu.Lock()
	sentMessages = nil
	sentMu.Unlock()
}

func (svc *ConsoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if svc.inline {
			svc.sendMessage(msg)
		} else {
			go svc.sendMessage(msg)
		}
	}
}

func (svc *ConsoleService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(svc.conf); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email: %v", err), errors.Wrap(err, "rendering email"))
		return
	}
	if !msg.Sendable() {
		return
	}

	if svc.out != nil {
		var body strings.Builder
		if err := svc.writeMIME(&body, *msg); err != nil {
			svc.logger.Error(fmt.Sprintf("encoding email: %v", err), err)
			return
		}
		svc.out.Println(body.String())
	}

	sentMu.Lock()
	sentMessages = append(sentMessages, *msg)
	sentMu.Unlock()
}

func (svc *ConsoleService) writeMIME(w io.Writer, msg core.EmailMessage) error {
	header := []string{
		"From: " + svc.conf.DefaultFromEmail.String(),
		"MIME-Version: 1.0",
		"Date: " + time.Now().Format(time.RFC1123Z),
		"Subject: [" + svc.conf.AppName + "] " + msg.Subject,
		"To: " + joinAddresses(msg.To),
		"CC: " + joinAddresses(msg.Cc),
		"BCC: " + joinAddresses(msg.Bcc),
	}

	mixed := multipart.NewWriter(w)
	alt := multipart.NewWriter(w)
	if msg.HasAttachments() {
		header = append(header, "Content-Type: multipart/mixed; boundary="+mixed.Boundary())
	} else {
		header = append(header, "Content-Type: multipart/alternative; boundary="+alt.Boundary())
	}
	if _, err := fmt.Fprint(w, strings.Join(header, "\r\n")+"\r\n\r\n"); err != nil {
		return err
	}

	if msg.HasAttachments() {
		if _, err := mixed.CreatePart(textproto.MIMEHeader{"Content-Type": {"multipart/alternative; boundary=" + alt.Boundary()}}); err != nil {
			return errors.Wrap(err, "creating alternative part")
		}
	}

	parts := []struct{ contentType, content string }{{"text/plain", msg.TextContent}}
	if msg.HTMLContent != "" {
		parts = append(parts, struct{ contentType, content string }{"text/html", msg.HTMLContent})
	}
	for _, p := range parts {
		pw, err := alt.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return errors.Wrapf(err, "creating %s part", p.contentType)
		}
		if _, err = fmt.Fprintf(pw, "%s\r\n", p.content); err != nil {
			return err
		}
	}
	if err := alt.Close(); err != nil {
		return err
	}
	if !msg.HasAttachments() {
		return nil
	}

	for _, at := range msg.Attachments {
		pw, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {at.ContentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {"attachment; filename=" + at.Filename},
		})
		if err != nil {
			return errors.Wrapf(err, "creating %s part", at.ContentType)
		}
		if _, err = fmt.Fprintf(pw, "%s\r\n", at.Content.String()); err != nil {
			return err
		}
	}
	return mixed.Close()
}

func joinAddresses(addrs []mail.Address) string {
	s := make([]string, 0, len(addrs))
	for _, a := range addrs {
		s = append(s, a.String())
	}
	return strings.Join(s, ", ")
}
