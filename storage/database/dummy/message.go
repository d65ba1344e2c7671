package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/message"
)

type messageRepository struct {
	db *messageTable
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db.message}
}

func matchMessage(msg message.Message, filter *message.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.TeacherID != "" && msg.TeacherID != filter.TeacherID {
		return false
	}
	if filter.ParentID != "" && msg.ParentID != filter.ParentID {
		return false
	}
	if filter.StudentID != "" && msg.StudentID != filter.StudentID {
		return false
	}
	return !(filter.Unread && msg.TeacherRead)
}

func (repo *messageRepository) CreateMessage(_ context.Context, msg message.Message) (message.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	msg.ID = uuid.New().String()
	repo.db.table[msg.ID] = &msg
	return msg, nil
}

func (repo *messageRepository) QueryMessages(_ context.Context, filter *message.QueryFilter) ([]message.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	msgs := make([]message.Message, 0)
	for _, msg := range repo.db.table {
		if matchMessage(*msg, filter) {
			msgs = append(msgs, *msg)
		}
	}
	sortBy(msgs, nil, map[string]compare{
		"created_at": func(i, j int) int { return cmpTime(msgs[i].CreatedAt, msgs[j].CreatedAt) },
	}, []core.DBOrdering{{Field: "created_at"}})
	return msgs, nil
}

func (repo *messageRepository) CountMessages(_ context.Context, filter *message.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, msg := range repo.db.table {
		if matchMessage(*msg, filter) {
			count++
		}
	}
	return count, nil
}

func (repo *messageRepository) GetMessage(_ context.Context, id string) (message.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if msg, ok := repo.db.table[id]; ok {
		return *msg, nil
	}
	return message.Message{}, message.ErrNotFound
}

func (repo *messageRepository) UpdateMessage(_ context.Context, msg message.Message) (message.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[msg.ID]
	if !ok {
		return message.Message{}, message.ErrNotFound
	}
	orig.TeacherRead = msg.TeacherRead
	orig.Reply = msg.Reply
	orig.RepliedAt = msg.RepliedAt
	return *orig, nil
}
