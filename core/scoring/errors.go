package scoring

import (
	"fmt"

	"github.com/pkg/errors"
)

var errMixedStudents = errors.New("records belong to different students")

// InvalidScoreError is returned for a score outside [0, MaxScore] of its skill.
// Such a score is never clamped: the whole record is refused.
type InvalidScoreError struct {
	Key      string
	Score    int
	MaxScore int
}

func (err *InvalidScoreError) Error() string {
	return fmt.Sprintf("invalid score %d for skill %q: must be between 0 and %d", err.Score, err.Key, err.MaxScore)
}

// IsInvalidScore reports whether the cause of err is an *InvalidScoreError.
func IsInvalidScore(err error) bool {
	_, ok := errors.Cause(err).(*InvalidScoreError)
	return ok
}
