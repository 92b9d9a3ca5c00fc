package thread

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "matbook-backend/internal/errors"
	"matbook-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

// fakeStore 是可编程的规范存储：第 n 次拉取返回 results[n]，
// gates[n] 非 nil 时第 n 次拉取挂起直到该通道关闭，
// 用于按确定顺序交错在途请求
type fakeStore struct {
	mu        sync.Mutex
	results   [][]*model.Reply
	gates     []chan struct{}
	calls     int
	deleteErr error
	deleted   []int
}

func (f *fakeStore) FetchReplies(ctx context.Context, commentID int) ([]*model.Reply, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	var gate chan struct{}
	if idx < len(f.gates) {
		gate = f.gates[idx]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if idx >= len(f.results) {
		return nil, errors.New("没有预置结果")
	}
	return f.results[idx], nil
}

func (f *fakeStore) DeleteReply(ctx context.Context, replyID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, replyID)
	return nil
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// waitFor 轮询直到条件成立，用于等待在途操作到位
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("等待条件超时")
		}
		time.Sleep(time.Millisecond)
	}
}

// TestRefreshMergesDelta 测试已知 [1,2]、服务端返回 [2,3] 时
// 规范序列为 [1,2,3]
func TestRefreshMergesDelta(t *testing.T) {
	store := &fakeStore{results: [][]*model.Reply{
		{reply(2, "b"), reply(3, "c")},
	}}
	th := New(10, []*model.Reply{reply(1, "a"), reply(2, "b")}, store, store, nil)

	err := th.Refresh(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids(th.Canonical()))
}

// TestRefreshErrorKeepsState 测试拉取失败按"无更新"处理
func TestRefreshErrorKeepsState(t *testing.T) {
	store := &fakeStore{} // 无预置结果，拉取必然失败
	th := New(10, []*model.Reply{reply(1, "a")}, store, store, nil)

	err := th.Refresh(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []int{1}, ids(th.Canonical()))
	assert.False(t, th.Loading())
}

// TestStaleFetchDiscarded 测试被超越的在途拉取结果被丢弃：
// 第一次拉取挂起期间发起并完成第二次拉取，
// 之后第一次拉取才完成，其旧结果不得覆盖新结果
func TestStaleFetchDiscarded(t *testing.T) {
	gate0 := make(chan struct{})
	gate1 := make(chan struct{})
	store := &fakeStore{
		gates: []chan struct{}{gate0, gate1},
		results: [][]*model.Reply{
			{reply(1, "a"), reply(9, "旧数据")},
			{reply(1, "a"), reply(2, "b"), reply(3, "c")},
		},
	}
	th := New(10, []*model.Reply{reply(1, "a")}, store, store, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		th.Refresh(context.Background()) // 第一次拉取，序号 1
	}()
	waitFor(t, func() bool { return store.callCount() == 1 })

	go func() {
		defer wg.Done()
		th.Refresh(context.Background()) // 第二次拉取，序号 2
	}()
	waitFor(t, func() bool { return store.callCount() == 2 })
	assert.True(t, th.Loading())

	// 先放行第二次（最新序号，结果被应用），再放行第一次（过期，丢弃）
	close(gate1)
	waitFor(t, func() bool { return len(ids(th.Canonical())) == 3 })
	close(gate0)
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3}, ids(th.Canonical()))
	assert.False(t, th.Loading())
}

// TestVisibleCap 测试默认只展示前 5 条，ShowAll 后展示全部且不可逆
func TestVisibleCap(t *testing.T) {
	known := []*model.Reply{
		reply(1, "a"), reply(2, "b"), reply(3, "c"),
		reply(4, "d"), reply(5, "e"), reply(6, "f"), reply(7, "g"),
	}
	th := New(10, known, &fakeStore{}, &fakeStore{}, nil)

	assert.Len(t, th.Visible(), MaxRepliesDisplay)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(th.Visible()))
	assert.True(t, th.HasMore())

	th.ShowAll()

	assert.Len(t, th.Visible(), 7)
	assert.False(t, th.HasMore())
}

func TestVisibleUnderCap(t *testing.T) {
	th := New(10, []*model.Reply{reply(1, "a")}, &fakeStore{}, &fakeStore{}, nil)

	assert.Equal(t, []int{1}, ids(th.Visible()))
	assert.False(t, th.HasMore())
}

// TestShowEmpty 测试空态只在规范序列为空且无拉取在途时成立
func TestShowEmpty(t *testing.T) {
	gate := make(chan struct{})
	store := &fakeStore{
		gates:   []chan struct{}{gate},
		results: [][]*model.Reply{{}},
	}
	th := New(10, nil, store, store, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		th.Refresh(context.Background())
	}()
	waitFor(t, func() bool { return store.callCount() == 1 })

	// 拉取在途：即使没有任何回复也不展示空态
	assert.False(t, th.ShowEmpty())

	close(gate)
	wg.Wait()

	assert.True(t, th.ShowEmpty())
}

// TestConfirmDelete 测试两阶段删除的成功路径：
// 规范序列由三条变两条，父评论收到被删回复的 id
func TestConfirmDelete(t *testing.T) {
	store := &fakeStore{results: [][]*model.Reply{
		{reply(1, "a"), reply(2, "b"), reply(3, "c")},
	}}
	var reported []int
	th := New(10, []*model.Reply{reply(1, "a"), reply(2, "b")}, store, store, func(replyID int) {
		reported = append(reported, replyID)
	})
	assert.NoError(t, th.Refresh(context.Background()))

	target := th.Canonical()[1] // id 2，同时存在于已知集合
	th.RequestDelete(target)
	assert.Equal(t, target, th.PendingDelete())

	err := th.ConfirmDelete(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids(th.Canonical()))
	assert.Equal(t, []int{2}, reported)
	assert.Equal(t, []int{2}, store.deleted)
	assert.Nil(t, th.PendingDelete())
}

// TestConfirmDeleteRollback 测试远端删除失败时回滚乐观移除
func TestConfirmDeleteRollback(t *testing.T) {
	store := &fakeStore{deleteErr: errors.New("远端失败")}
	var reported []int
	th := New(10, []*model.Reply{reply(1, "a"), reply(2, "b")}, store, store, func(replyID int) {
		reported = append(reported, replyID)
	})

	th.RequestDelete(th.Canonical()[1])
	err := th.ConfirmDelete(context.Background())

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrReplyDeleteFailed, apperrors.CodeOf(err))
	// 回滚后本地副本与删除前一致，父评论不收到任何通知
	assert.Equal(t, []int{1, 2}, ids(th.Canonical()))
	assert.Empty(t, reported)
	assert.Nil(t, th.PendingDelete())
}

// TestConfirmDeleteRollbackKeepsConcurrentFetch 测试删除在途期间
// 完成的拉取结果在回滚时保留：回滚只把目标放回，
// 不得用删除前的快照覆盖新拉取带回的回复
func TestConfirmDeleteRollbackKeepsConcurrentFetch(t *testing.T) {
	store := &fakeStore{results: [][]*model.Reply{
		{reply(1, "a"), reply(2, "b"), reply(3, "c")},
	}}
	entered := make(chan struct{})
	gate := make(chan struct{})
	failingDeleter := deleterFunc(func(ctx context.Context, replyID int) error {
		close(entered)
		<-gate
		return errors.New("远端失败")
	})
	th := New(10, []*model.Reply{reply(1, "a"), reply(2, "b")}, store, failingDeleter, nil)

	th.RequestDelete(th.Canonical()[1]) // id 2
	var deleteErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		deleteErr = th.ConfirmDelete(context.Background())
	}()
	<-entered

	// 删除挂起期间完成一次拉取，服务端带回了新回复 3
	assert.NoError(t, th.Refresh(context.Background()))

	close(gate)
	wg.Wait()

	assert.Error(t, deleteErr)
	assert.Equal(t, apperrors.ErrReplyDeleteFailed, apperrors.CodeOf(deleteErr))
	// 目标 2 回到原处，拉取带回的 3 没有被回滚吞掉
	assert.Equal(t, []int{1, 2, 3}, ids(th.Canonical()))
}

// TestConfirmDeleteSingleFlight 测试同一实例同时只允许一个删除在途
func TestConfirmDeleteSingleFlight(t *testing.T) {
	gate := make(chan struct{})
	blockingDeleter := deleterFunc(func(ctx context.Context, replyID int) error {
		<-gate
		return nil
	})
	th := New(10, []*model.Reply{reply(1, "a"), reply(2, "b")}, &fakeStore{}, blockingDeleter, nil)

	th.RequestDelete(th.Canonical()[0])
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		th.ConfirmDelete(context.Background())
	}()
	waitFor(t, func() bool { return th.Loading() })

	th.RequestDelete(th.Canonical()[0])
	err := th.ConfirmDelete(context.Background())

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrDeleteInFlight, apperrors.CodeOf(err))

	close(gate)
	wg.Wait()
}

// TestCancelDelete 测试取消待删除不产生任何变更
func TestCancelDelete(t *testing.T) {
	store := &fakeStore{}
	th := New(10, []*model.Reply{reply(1, "a")}, store, store, nil)

	th.RequestDelete(th.Canonical()[0])
	th.CancelDelete()

	assert.Nil(t, th.PendingDelete())
	assert.Equal(t, []int{1}, ids(th.Canonical()))
	assert.NoError(t, th.ConfirmDelete(context.Background()))
	assert.Empty(t, store.deleted)
}

// TestRequestDeleteReplaces 测试重复请求替换之前的待删除项
func TestRequestDeleteReplaces(t *testing.T) {
	th := New(10, []*model.Reply{reply(1, "a"), reply(2, "b")}, &fakeStore{}, &fakeStore{}, nil)

	th.RequestDelete(th.Canonical()[0])
	th.RequestDelete(th.Canonical()[1])

	assert.Equal(t, 2, th.PendingDelete().ID)
}

// TestCloseMakesCompletionsNoOp 测试拆除后在途完成变成空操作
func TestCloseMakesCompletionsNoOp(t *testing.T) {
	gate := make(chan struct{})
	store := &fakeStore{
		gates:   []chan struct{}{gate},
		results: [][]*model.Reply{{reply(1, "a"), reply(2, "b")}},
	}
	th := New(10, nil, store, store, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		th.Refresh(context.Background())
	}()
	waitFor(t, func() bool { return store.callCount() == 1 })

	th.Close()
	close(gate)
	wg.Wait()

	// 拆除后完成的拉取不得应用结果
	assert.Empty(t, th.Canonical())
	assert.Nil(t, th.PendingDelete())
}

// TestSetKnownRefetches 测试已知集合变化会触发重新拉取
func TestSetKnownRefetches(t *testing.T) {
	store := &fakeStore{results: [][]*model.Reply{
		{reply(1, "a"), reply(2, "b")},
		{reply(1, "a"), reply(2, "b"), reply(3, "c")},
	}}
	th := New(10, []*model.Reply{reply(1, "a")}, store, store, nil)
	assert.NoError(t, th.Refresh(context.Background()))
	assert.Equal(t, []int{1, 2}, ids(th.Canonical()))

	err := th.SetKnown(context.Background(), []*model.Reply{reply(1, "a"), reply(2, "b")})

	assert.NoError(t, err)
	assert.Equal(t, 2, store.callCount())
	assert.Equal(t, []int{1, 2, 3}, ids(th.Canonical()))
}

// deleterFunc 让函数直接充当 ReplyDeleter
type deleterFunc func(ctx context.Context, replyID int) error

func (f deleterFunc) DeleteReply(ctx context.Context, replyID int) error {
	return f(ctx, replyID)
}
