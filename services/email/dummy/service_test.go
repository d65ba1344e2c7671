package dummymail

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tahsil/core"
	logsvc "github.com/trezcool/tahsil/services/logger"
)

func newTestService() *Service {
	conf := &core.Config{AppName: "Tahsil", FrontendBaseURL: "http://front.test", DefaultFromEmail: "noreply@test.cd"}
	return NewServiceMock(conf, logsvc.NewNopLogger())
}

func TestService_SendMessages(t *testing.T) {
	svc := newTestService()
	to := []mail.Address{{Name: "Parent", Address: "parent@test.cd"}}

	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "lost"},
		&core.EmailMessage{
			To:           to,
			Subject:      "reset",
			TemplateName: "password_reset",
			TemplateData: map[string]string{"Name": "Parent", "UID": "uid", "Token": "tok"},
		},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "hello", sent[0].TextContent)
	assert.Empty(t, sent[0].HTMLContent)

	assert.Contains(t, sent[1].TextContent, "http://front.test/password-reset?uid=uid&token=tok")
	assert.Contains(t, sent[1].TextContent, "Tahsil")
	assert.Contains(t, sent[1].HTMLContent, "Choose a new password")

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestService_format(t *testing.T) {
	svc := newTestService()
	body, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Name: "A", Address: "a@test.cd"}, {Address: "b@test.cd"}},
		Subject:     "subject",
		TextContent: "text",
		HTMLContent: "<p>html</p>",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [Tahsil] subject\r\n")
	assert.Contains(t, body, `To: "A" <a@test.cd>, <b@test.cd>`)
	assert.Contains(t, body, "text/plain")
	assert.Contains(t, body, "<p>html</p>")
}
