package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/tahsil/core/user"
)

func TestZapLogger_fields(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	logger := &ZapLogger{zl: zap.New(obs)}

	usr := user.User{ID: "42", Username: "teacher"}
	logger.Warn("weekly snapshot skipped", errors.New("boom"), map[string]interface{}{"student_id": "s1"}, usr)
	logger.Debug("plain")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "weekly snapshot skipped", entries[0].Message)
		assert.Equal(t, "boom", ctx["error"])
		assert.Equal(t, "s1", ctx["student_id"])
		assert.Equal(t, "42", ctx["user_id"])
		assert.Equal(t, "teacher", ctx["username"])

		assert.Equal(t, "plain", entries[1].Message)
		assert.Empty(t, entries[1].Context)
	}
}
