package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdminSet(t *testing.T) {
	admins := newAdminSet([]int64{1, 2})

	assert.True(t, admins.Contains(1))
	assert.True(t, admins.Contains(2))
	assert.False(t, admins.Contains(3))
	assert.False(t, newAdminSet(nil).Contains(1))
}

func TestLabelRows(t *testing.T) {
	rows := labelRows([]string{"a", "b", "c"}, 2, btnBack)

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}, {btnBack}}, rows)
}

func TestLabelRowsSingleColumn(t *testing.T) {
	rows := labelRows([]string{"a", "b"}, 1)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, rows)
}

func TestReplyButtonsShape(t *testing.T) {
	markup := replyButtons([]string{"a", "b"}, []string{"c"})

	assert.True(t, markup.ResizeKeyboard)
	if assert.Len(t, markup.ReplyKeyboard, 2) {
		assert.Len(t, markup.ReplyKeyboard[0], 2)
		assert.Len(t, markup.ReplyKeyboard[1], 1)
		assert.Equal(t, "a", markup.ReplyKeyboard[0][0].Text)
	}
}

func TestShouldRetry(t *testing.T) {
	assert.False(t, shouldRetry(nil))
	assert.False(t, shouldRetry(assert.AnError))
}
