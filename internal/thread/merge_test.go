package thread

import (
	"testing"

	"matbook-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func reply(id int, content string) *model.Reply {
	return &model.Reply{ID: id, Content: content}
}

func ids(replies []*model.Reply) []int {
	out := make([]int, 0, len(replies))
	for _, r := range replies {
		out = append(out, r.ID)
	}
	return out
}

// TestDeltaReplies 测试增量计算：已知一条，服务端返回三条，
// 增量只包含新发现的两条且保持拉取顺序
func TestDeltaReplies(t *testing.T) {
	known := []*model.Reply{reply(1, "a")}
	fetched := []*model.Reply{reply(1, "a"), reply(2, "b"), reply(3, "c")}

	delta := DeltaReplies(known, fetched)

	assert.Equal(t, []int{2, 3}, ids(delta))
}

func TestDeltaRepliesEmptyKnown(t *testing.T) {
	fetched := []*model.Reply{reply(2, "b"), reply(1, "a")}

	delta := DeltaReplies(nil, fetched)

	// 已知集合为空时增量就是整个拉取结果，顺序不变
	assert.Equal(t, []int{2, 1}, ids(delta))
}

// TestMergeReplies 测试合并顺序：已知在前按原顺序，新发现在后按拉取顺序
func TestMergeReplies(t *testing.T) {
	known := []*model.Reply{reply(1, "a")}
	fetched := []*model.Reply{reply(2, "b"), reply(3, "c")}

	canonical := MergeReplies(known, fetched)

	assert.Equal(t, []int{1, 2, 3}, ids(canonical))
}

// TestMergeRepliesDedup 测试按 id 去重且保留先出现的副本
func TestMergeRepliesDedup(t *testing.T) {
	known := []*model.Reply{reply(1, "已知版本"), reply(2, "b")}
	fetched := []*model.Reply{reply(1, "拉取版本"), reply(3, "c")}

	canonical := MergeReplies(known, fetched)

	assert.Equal(t, []int{1, 2, 3}, ids(canonical))
	// 重复 id 保留先出现的副本：已知副本胜过拉取副本
	assert.Equal(t, "已知版本", canonical[0].Content)
}

// TestMergeRepliesIdempotent 测试合并的幂等性：重复合并同一输入结果不变
func TestMergeRepliesIdempotent(t *testing.T) {
	known := []*model.Reply{reply(1, "a"), reply(1, "dup"), reply(2, "b")}
	fetched := []*model.Reply{reply(2, "dup"), reply(3, "c")}

	once := MergeReplies(known, fetched)
	twice := MergeReplies(once, fetched)

	assert.Equal(t, ids(once), ids(twice))
	assert.Equal(t, []int{1, 2, 3}, ids(once))
}

func TestMergeRepliesBothEmpty(t *testing.T) {
	assert.Empty(t, MergeReplies(nil, nil))
}
