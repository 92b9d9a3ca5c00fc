package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetErrorCode(t *testing.T) {
	err := New(ErrForbidden, "只能删除自己的帖子")
	assert.Equal(t, ErrForbidden, GetErrorCode(err))
	assert.Equal(t, "只能删除自己的帖子", err.Error())
}

func TestGetErrorCodePlainError(t *testing.T) {
	err := fmt.Errorf("数据库连接失败")
	assert.Equal(t, ErrInternal, GetErrorCode(err))
}
