package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
)

type Kind string

const (
	KindBroadcast Kind = "broadcast"
	KindClass     Kind = "class"
)

var (
	ErrSendFailed      = errors.New("Failed to send broadcast. Please try again.")
	ErrClassIncomplete = errors.New("Please fill in all fields and select a class")
	ErrClassNotFound   = errors.New("Selected class not found")
)

type (
	// Broadcast is a sent announcement, either school-wide or to one class.
	Broadcast struct {
		ID         string       `json:"id" db:"id"`
		Kind       Kind         `json:"kind" db:"kind"`
		SenderID   string       `json:"senderId" db:"sender_id"`
		SenderName string       `json:"senderName" db:"sender_name"`
		Title      string       `json:"title" db:"title"`
		Body       string       `json:"body" db:"body"`
		Audiences  []AudienceID `json:"audiences" db:"-"`
		Labels     string       `json:"labels" db:"labels"`
		Recipients int          `json:"recipients" db:"recipients"`
		SentAt     time.Time    `json:"sentAt" db:"sent_at"`
	}

	Repository interface {
		CreateBroadcast(ctx context.Context, b Broadcast) (Broadcast, error)
		// QueryBroadcasts returns broadcasts newest first; an empty senderID returns all of them.
		QueryBroadcasts(ctx context.Context, senderID string) ([]Broadcast, error)
	}

	// Dispatcher delivers a recorded broadcast to its audience.
	Dispatcher interface {
		Dispatch(ctx context.Context, b Broadcast) error
	}

	Option func(*Service)

	Service struct {
		repo       Repository
		dispatcher Dispatcher
		logger     core.Logger
		classes    []TeacherClass

		delay      time.Duration
		classDelay time.Duration
		now        func() time.Time
	}
)

// Message returns the success text shown once the broadcast is sent.
func (b Broadcast) Message() string {
	if b.Kind == KindClass {
		return fmt.Sprintf("Your message has been sent to all %d students in %s.", b.Recipients, b.Labels)
	}
	return fmt.Sprintf("Your message has been successfully sent to %d recipients.", b.Recipients)
}

// WithDelays sets the simulated send latencies (defaults: 2s for broadcasts, 1.5s for class messages).
func WithDelays(broadcast, class time.Duration) Option {
	return func(svc *Service) {
		svc.delay = broadcast
		svc.classDelay = class
	}
}

// WithClasses overrides the teacher's classes.
func WithClasses(classes []TeacherClass) Option {
	return func(svc *Service) { svc.classes = classes }
}

func NewService(repo Repository, dispatcher Dispatcher, logger core.Logger, opts ...Option) *Service {
	svc := &Service{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		classes:    DemoClasses(),
		delay:      2 * time.Second,
		classDelay: 1500 * time.Millisecond,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Send validates the draft, waits for the configured delay, then records and dispatches it.
// A cancelled ctx aborts before anything is recorded. There is no retry.
func (svc *Service) Send(ctx context.Context, sender session.User, d Draft) (Broadcast, error) {
	if !sender.IsAdmin() {
		return Broadcast{}, core.ErrForbidden
	}
	if err := d.Validate(); err != nil {
		return Broadcast{}, err
	}

	b := Broadcast{
		Kind:       KindBroadcast,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Title:      core.CleanString(d.Title),
		Body:       core.CleanString(d.Body),
		Audiences:  d.Audience.SelectedIDs(),
		Labels:     d.Audience.Labels(),
		Recipients: d.Audience.TotalRecipients(),
	}
	return svc.send(ctx, b, svc.delay)
}

// SendClassMessage sends a message to every student of one of the teacher's classes.
func (svc *Service) SendClassMessage(ctx context.Context, sender session.User, cm ClassMessage) (Broadcast, error) {
	if !sender.IsTeacher() {
		return Broadcast{}, core.ErrForbidden
	}
	if core.IsBlank(cm.ClassID) || core.IsBlank(cm.Title) || core.IsBlank(cm.Body) {
		return Broadcast{}, core.NewValidationError(ErrClassIncomplete)
	}
	if err := core.CheckTextLimits(
		core.TextLimit{Field: "title", Value: cm.Title, Max: MaxTitleLength},
		core.TextLimit{Field: "body", Value: cm.Body, Max: MaxClassBodyLength},
	); err != nil {
		return Broadcast{}, err
	}
	class, ok := svc.findClass(cm.ClassID)
	if !ok {
		return Broadcast{}, core.NewValidationError(ErrClassNotFound)
	}

	b := Broadcast{
		Kind:       KindClass,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Title:      core.CleanString(cm.Title),
		Body:       core.CleanString(cm.Body),
		Audiences:  []AudienceID{class.AudienceID()},
		Labels:     class.Label(),
		Recipients: class.StudentCount,
	}
	return svc.send(ctx, b, svc.classDelay)
}

func (svc *Service) send(ctx context.Context, b Broadcast, delay time.Duration) (Broadcast, error) {
	if err := core.Sleep(ctx, delay); err != nil {
		return Broadcast{}, errors.Wrap(err, "waiting to send")
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return Broadcast{}, errors.Wrap(err, "generating broadcast id")
	}
	b.ID = id.String()
	b.SentAt = svc.now().UTC()

	saved, err := svc.repo.CreateBroadcast(ctx, b)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("recording broadcast: %v", err), err)
		return Broadcast{}, errors.Wrap(ErrSendFailed, err.Error())
	}
	if err = svc.dispatcher.Dispatch(ctx, saved); err != nil {
		svc.logger.Error(fmt.Sprintf("dispatching broadcast %s: %v", saved.ID, err), err)
		return Broadcast{}, errors.Wrap(ErrSendFailed, err.Error())
	}
	return saved, nil
}

// History returns what the user sent, newest first. Admins see every broadcast.
func (svc *Service) History(ctx context.Context, viewer session.User) ([]Broadcast, error) {
	switch viewer.Role {
	case session.RoleAdmin:
		return svc.repo.QueryBroadcasts(ctx, "")
	case session.RoleTeacher:
		return svc.repo.QueryBroadcasts(ctx, viewer.ID)
	case session.RoleStudent:
		return nil, core.ErrForbidden
	default:
		return nil, core.ErrForbidden
	}
}

// Classes returns the classes a teacher can message.
func (svc *Service) Classes(viewer session.User) ([]TeacherClass, error) {
	if !viewer.IsTeacher() {
		return nil, core.ErrForbidden
	}
	return svc.classes, nil
}

func (svc *Service) findClass(id string) (TeacherClass, bool) {
	id = core.CleanString(id)
	for _, c := range svc.classes {
		if c.ID == id {
			return c, true
		}
	}
	return TeacherClass{}, false
}
