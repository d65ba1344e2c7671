package message_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tahsil/core/message"
	"github.com/trezcool/tahsil/core/user"
	"github.com/trezcool/tahsil/tests"
)

func TestNewMessage_Validate(t *testing.T) {
	env := testutil.NewEnv(t)

	tests := []struct {
		name    string
		nm      message.NewMessage
		wantErr bool
	}{
		{name: "empty", nm: message.NewMessage{}, wantErr: true},
		{name: "blank text", nm: message.NewMessage{ParentID: "p", StudentID: "s", Topic: "Absence", Text: "   "}, wantErr: true},
		{name: "valid", nm: message.NewMessage{ParentID: "p", StudentID: "s", Topic: " Absence ", Text: "Sick today"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nm.Validate(env.Validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "Absence", tt.nm.Topic)
		})
	}
}

func TestService(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, env.UserRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := testutil.CreateUser(t, env.UserRepo, "Parent", "parent", "parent@test.cd", "", []string{user.RoleParent}, true)
	stranger := testutil.CreateUser(t, env.UserRepo, "Stranger", "stranger", "", "", []string{user.RoleParent}, true)
	std := testutil.CreateStudent(t, env.StudentRepo, teacher.ID, "Ali", "Hassan", parent.ID)

	_, err := env.MessageSvc.Send(ctx, message.NewMessage{ParentID: stranger.ID, StudentID: std.ID, Topic: "Hi", Text: "Hello"})
	assert.Equal(t, message.ErrNotParent, err)

	signed, err := env.MessageSvc.Send(ctx, message.NewMessage{ParentID: parent.ID, StudentID: std.ID, Topic: "Homework", Text: "Too long"})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, signed.TeacherID)
	assert.False(t, signed.TeacherRead)
	anon, err := env.MessageSvc.Send(ctx, message.NewMessage{ParentID: parent.ID, StudentID: std.ID, Topic: "Noise", Text: "Class is loud", IsAnonymous: true})
	require.NoError(t, err)

	t.Run("teacher inbox", func(t *testing.T) {
		msgs, err := env.MessageSvc.QueryForTeacher(ctx, teacher.ID, message.QueryFilter{})
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		for _, msg := range msgs {
			if msg.ID == anon.ID {
				assert.Empty(t, msg.ParentID)
			} else {
				assert.Equal(t, parent.ID, msg.ParentID)
			}
		}

		n, err := env.MessageSvc.UnreadCount(ctx, teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		read, err := env.MessageSvc.MarkRead(ctx, signed)
		require.NoError(t, err)
		assert.True(t, read.TeacherRead)

		msgs, err = env.MessageSvc.QueryForTeacher(ctx, teacher.ID, message.QueryFilter{Unread: true})
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, anon.ID, msgs[0].ID)
	})

	t.Run("reply", func(t *testing.T) {
		env.Mail.Reset()
		msg, err := env.MessageSvc.GetByID(ctx, anon.ID)
		require.NoError(t, err)

		replied, err := env.MessageSvc.Reply(ctx, msg, message.NewReply{Text: "We will fix it"})
		require.NoError(t, err)
		assert.True(t, replied.Reply.Valid)
		assert.True(t, replied.RepliedAt.Valid)
		assert.True(t, replied.TeacherRead)

		sent := env.Mail.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, parent.Email, sent[0].To[0].Address)
		assert.Equal(t, "Reply: Noise", sent[0].Subject)
		assert.Contains(t, sent[0].TextContent, "We will fix it")

		_, err = env.MessageSvc.Reply(ctx, replied, message.NewReply{Text: "again"})
		assert.Equal(t, message.ErrAlreadyReply, err)

		n, err := env.MessageSvc.UnreadCount(ctx, teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("parent outbox", func(t *testing.T) {
		msgs, err := env.MessageSvc.QueryForParent(ctx, parent.ID, std.ID)
		require.NoError(t, err)
		assert.Len(t, msgs, 2)

		msgs, err = env.MessageSvc.QueryForParent(ctx, stranger.ID, std.ID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})
}
