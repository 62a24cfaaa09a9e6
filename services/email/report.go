package emailsvc

import (
	"bytes"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
)

// ReportMailer emails generated reports to the user who asked for them.
type ReportMailer struct {
	svc core.EmailService
}

func NewReportMailer(svc core.EmailService) *ReportMailer {
	return &ReportMailer{svc: svc}
}

// MailLeaveReport sends the applied-leaves PDF of usr to its email address.
func (m *ReportMailer) MailLeaveReport(usr session.User, pdf []byte) error {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your applied leaves",
		TemplateName: "leave_report",
		TemplateData: map[string]interface{}{"Name": usr.Name},
	}
	if err := msg.Attach(bytes.NewReader(pdf), "leaves.pdf", "application/pdf"); err != nil {
		return errors.Wrap(err, "attaching leave report")
	}
	m.svc.SendMessages(msg)
	return nil
}
