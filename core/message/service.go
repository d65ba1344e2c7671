package message

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/student"
	"github.com/trezcool/tahsil/core/user"
)

var (
	ErrNotFound     = errors.New("message not found")
	ErrNotParent    = errors.New("not a parent of this student")
	ErrAlreadyReply = errors.New("message already replied to")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// QueryMessages lists messages matching filter, most recent first.
		QueryMessages(ctx context.Context, filter *QueryFilter) ([]Message, error)
		CountMessages(ctx context.Context, filter *QueryFilter) (int, error)
		GetMessage(ctx context.Context, id string) (Message, error)
		UpdateMessage(ctx context.Context, msg Message) (Message, error)
	}

	StudentGetter interface {
		GetByID(ctx context.Context, id string) (student.Student, error)
		IsParentOf(ctx context.Context, parentID, studentID string) (bool, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		students StudentGetter
		users    UserGetter
		mailSvc  core.EmailService
	}

	replyEmailData struct {
		ParentName  string
		TeacherName string
		StudentName string
		Topic       string
		Reply       string
	}
)

func NewService(repo Repository, students StudentGetter, users UserGetter, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, students: students, users: users, mailSvc: mailSvc}
}

// Send delivers a parent message to the teacher of the student.
func (svc *Service) Send(ctx context.Context, nm NewMessage) (Message, error) {
	ok, err := svc.students.IsParentOf(ctx, nm.ParentID, nm.StudentID)
	if err != nil {
		return Message{}, errors.Wrap(err, "checking parent")
	}
	if !ok {
		return Message{}, ErrNotParent
	}
	std, err := svc.students.GetByID(ctx, nm.StudentID)
	if err != nil {
		return Message{}, errors.Wrap(err, "getting student")
	}

	msg, err := svc.repo.CreateMessage(ctx, Message{
		StudentID:   std.ID,
		ParentID:    nm.ParentID,
		TeacherID:   std.TeacherID,
		Topic:       nm.Topic,
		Text:        nm.Text,
		IsAnonymous: nm.IsAnonymous,
		CreatedAt:   time.Now().UTC(),
	})
	return msg, errors.Wrap(err, "creating message")
}

// QueryForTeacher lists the messages received by a teacher, anonymous senders hidden.
func (svc *Service) QueryForTeacher(ctx context.Context, teacherID string, filter QueryFilter) ([]Message, error) {
	filter.TeacherID = teacherID
	filter.ParentID = ""
	msgs, err := svc.repo.QueryMessages(ctx, &filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	for i := range msgs {
		msgs[i] = msgs[i].ForTeacher()
	}
	return msgs, nil
}

// QueryForParent lists the messages a parent sent about a student.
func (svc *Service) QueryForParent(ctx context.Context, parentID, studentID string) ([]Message, error) {
	msgs, err := svc.repo.QueryMessages(ctx, &QueryFilter{ParentID: parentID, StudentID: studentID})
	return msgs, errors.Wrap(err, "querying messages")
}

func (svc *Service) UnreadCount(ctx context.Context, teacherID string) (int, error) {
	return svc.repo.CountMessages(ctx, &QueryFilter{TeacherID: teacherID, Unread: true})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Message, error) {
	return svc.repo.GetMessage(ctx, id)
}

func (svc *Service) MarkRead(ctx context.Context, msg Message) (Message, error) {
	if msg.TeacherRead {
		return msg, nil
	}
	msg.TeacherRead = true
	msg, err := svc.repo.UpdateMessage(ctx, msg)
	return msg, errors.Wrap(err, "marking message read")
}

// Reply stores the teacher's reply and emails it to the parent.
func (svc *Service) Reply(ctx context.Context, msg Message, nr NewReply) (Message, error) {
	if msg.Reply.Valid {
		return Message{}, ErrAlreadyReply
	}
	msg.Reply = null.StringFrom(nr.Text)
	msg.RepliedAt = null.TimeFrom(time.Now().UTC())
	msg.TeacherRead = true
	msg, err := svc.repo.UpdateMessage(ctx, msg)
	if err != nil {
		return Message{}, errors.Wrap(err, "replying to message")
	}

	if err := svc.notifyParent(ctx, msg); err != nil {
		return msg, errors.Wrap(err, "notifying parent")
	}
	return msg, nil
}

func (svc *Service) notifyParent(ctx context.Context, msg Message) error {
	parent, err := svc.users.GetByID(ctx, msg.ParentID)
	if err != nil {
		return errors.Wrap(err, "getting parent")
	}
	if parent.Email == "" {
		return nil
	}
	teacher, err := svc.users.GetByID(ctx, msg.TeacherID)
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	std, err := svc.students.GetByID(ctx, msg.StudentID)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: parent.Name, Address: parent.Email}},
		Subject:      "Reply: " + msg.Topic,
		TemplateName: "message_reply",
		TemplateData: replyEmailData{
			ParentName:  parent.Name,
			TeacherName: teacher.Name,
			StudentName: std.FullName(),
			Topic:       msg.Topic,
			Reply:       msg.Reply.String,
		},
	})
	return nil
}
