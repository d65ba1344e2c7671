package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core/message"
)

const messageColumns = `id, student_id, parent_id, teacher_id, topic, text, is_anonymous, teacher_read, reply, replied_at, created_at`

type messageRepository struct {
	db *sqlx.DB
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *sqlx.DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) filter(filter *message.QueryFilter) query {
	var qry query
	if filter == nil {
		return qry
	}
	if filter.TeacherID != "" {
		qry.where("teacher_id::text = ?", filter.TeacherID)
	}
	if filter.ParentID != "" {
		qry.where("parent_id::text = ?", filter.ParentID)
	}
	if filter.StudentID != "" {
		qry.where("student_id::text = ?", filter.StudentID)
	}
	if filter.Unread {
		qry.where("NOT teacher_read")
	}
	return qry
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	msg.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO message (`+messageColumns+`)
		VALUES (:id, :student_id, :parent_id, :teacher_id, :topic, :text, :is_anonymous,
			:teacher_read, :reply, :replied_at, :created_at)`, msg)
	if err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo *messageRepository) QueryMessages(ctx context.Context, filter *message.QueryFilter) ([]message.Message, error) {
	qry := repo.filter(filter)
	q := repo.db.Rebind(`SELECT ` + messageColumns + ` FROM message` + qry.String() + ` ORDER BY created_at DESC`)

	msgs := make([]message.Message, 0)
	if err := repo.db.SelectContext(ctx, &msgs, q, qry.args...); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	return msgs, nil
}

func (repo *messageRepository) CountMessages(ctx context.Context, filter *message.QueryFilter) (int, error) {
	qry := repo.filter(filter)
	var count int
	err := repo.db.GetContext(ctx, &count, repo.db.Rebind(`SELECT COUNT(*) FROM message`+qry.String()), qry.args...)
	return count, errors.Wrap(err, "counting messages")
}

func (repo *messageRepository) GetMessage(ctx context.Context, id string) (message.Message, error) {
	if !isUUID(id) {
		return message.Message{}, message.ErrNotFound
	}
	var msg message.Message
	if err := repo.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM message WHERE id = $1`, id); err != nil {
		return message.Message{}, trapNoRowsErr(err, message.ErrNotFound, "getting message")
	}
	return msg, nil
}

func (repo *messageRepository) UpdateMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE message SET
		teacher_read = :teacher_read, reply = :reply, replied_at = :replied_at
		WHERE id = :id`, msg)
	if err != nil {
		return message.Message{}, errors.Wrap(err, "updating message")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return message.Message{}, message.ErrNotFound
	}
	return msg, nil
}
