package comments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplySelector_SingleTarget(t *testing.T) {
	s := NewReplySelector()

	s.Start(1)
	s.Start(2)

	assert.False(t, s.IsReplying(1))
	assert.True(t, s.IsReplying(2))

	id, ok := s.Target()
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	s.Cancel()
	_, ok = s.Target()
	assert.False(t, ok)
	assert.False(t, s.IsReplying(2))
}

func TestReplySelector_CancelIf(t *testing.T) {
	s := NewReplySelector()
	s.Start(5)

	s.cancelIf(4)
	assert.True(t, s.IsReplying(5))

	s.cancelIf(5)
	assert.False(t, s.IsReplying(5))
}

func TestReplySelector_Forget(t *testing.T) {
	s := NewReplySelector()
	s.Start(3)

	s.forget([]int64{1, 2})
	assert.True(t, s.IsReplying(3))

	s.forget([]int64{2, 3})
	assert.False(t, s.IsReplying(3))
}
