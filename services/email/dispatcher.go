package emailsvc

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/broadcast"
)

const classListKey = "classes"

var errNoMailingList = errors.New("no mailing list for audience")

// BroadcastDispatcher emails each broadcast to the mailing lists of its audience groups.
type BroadcastDispatcher struct {
	svc   core.EmailService
	lists map[string]string
}

var _ broadcast.Dispatcher = (*BroadcastDispatcher)(nil)

func NewBroadcastDispatcher(svc core.EmailService, conf *core.Config) *BroadcastDispatcher {
	return &BroadcastDispatcher{svc: svc, lists: conf.MailingLists}
}

func (d *BroadcastDispatcher) recipients(ids []broadcast.AudienceID) ([]mail.Address, error) {
	addrs := make([]mail.Address, 0, len(ids))
	for _, id := range ids {
		var list string
		if classID := strings.TrimPrefix(string(id), "class:"); classID != string(id) {
			if format := d.lists[classListKey]; format != "" {
				list = fmt.Sprintf(format, classID)
			}
		} else {
			list = d.lists[string(id)]
		}
		if list == "" {
			return nil, errors.Wrapf(errNoMailingList, "%q", id)
		}
		addrs = append(addrs, mail.Address{Address: list})
	}
	return addrs, nil
}

// Dispatch queues one email blind-copied to every list. Delivery happens in the background.
func (d *BroadcastDispatcher) Dispatch(ctx context.Context, b broadcast.Broadcast) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bcc, err := d.recipients(b.Audiences)
	if err != nil {
		return err
	}
	d.svc.SendMessages(&core.EmailMessage{
		Bcc:          bcc,
		Subject:      b.Title,
		TemplateName: "broadcast",
		TemplateData: map[string]interface{}{
			"Title":          b.Title,
			"Body":           b.Body,
			"SenderName":     b.SenderName,
			"AudienceLabels": b.Labels,
		},
	})
	return nil
}
