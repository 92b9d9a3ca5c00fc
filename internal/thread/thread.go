package thread

import (
	"context"
	"sync"

	"matbook-backend/internal/errors"
	"matbook-backend/internal/model"

	"go.uber.org/zap"
)

// MaxRepliesDisplay 是默认展示的回复条数上限
const MaxRepliesDisplay = 5

// ReplyFetcher 从规范存储拉取某条评论的全部回复
type ReplyFetcher interface {
	FetchReplies(ctx context.Context, commentID int) ([]*model.Reply, error)
}

// ReplyDeleter 向规范存储发出回复删除
type ReplyDeleter interface {
	DeleteReply(ctx context.Context, replyID int) error
}

// Thread 持有单条评论的回复协调状态。
// 状态只归属一个实例，所有变更都经由 MergeReplies/DeltaReplies
// 两个纯函数推导，不做字段级的随手修改。
// 规范存储始终是唯一事实来源，本地副本只是读优化与乐观覆盖，
// 最终都会被新一次拉取取代。
type Thread struct {
	mu        sync.Mutex
	commentID int
	fetcher   ReplyFetcher
	deleter   ReplyDeleter

	// onReplyDeleted 在一次删除成功后通知父评论，便于回减聚合计数
	onReplyDeleted func(replyID int)

	known   []*model.Reply // 调用方提供的已知集合（可能过期或不全）
	fetched []*model.Reply // 已知集合之外新发现的回复

	// fetchSeq 单调递增；拉取完成时只有仍是最新序号的结果才会被应用，
	// 避免被超越的在途拉取用旧数据覆盖新数据
	fetchSeq uint64

	inflight      int // 在途网络操作数；大于 0 时视为加载中
	deleting      bool
	showAll       bool
	pendingDelete *model.Reply
	closed        bool
}

// New 创建一个线程实例。known 可以为服务端渲染的初始回复。
// 创建后调用方应当调用一次 Refresh 触发首次拉取。
func New(commentID int, known []*model.Reply, fetcher ReplyFetcher, deleter ReplyDeleter, onReplyDeleted func(replyID int)) *Thread {
	return &Thread{
		commentID:      commentID,
		fetcher:        fetcher,
		deleter:        deleter,
		onReplyDeleted: onReplyDeleted,
		known:          append([]*model.Reply(nil), known...),
	}
}

// SetKnown 替换已知集合并重新拉取。每次已知集合变化都要重新拉取，
// 不只是首次。
func (t *Thread) SetKnown(ctx context.Context, known []*model.Reply) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.known = append([]*model.Reply(nil), known...)
	t.mu.Unlock()
	return t.Refresh(ctx)
}

// Refresh 向规范存储拉取一次回复并合并。
// 拉取失败按"无更新"静默跳过：保留原有状态，只清掉加载标记。
// 过期的拉取结果（期间又发起了新拉取）直接丢弃。
func (t *Thread) Refresh(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.fetchSeq++
	seq := t.fetchSeq
	t.inflight++
	t.mu.Unlock()

	replies, err := t.fetcher.FetchReplies(ctx, t.commentID)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight--
	if t.closed {
		// 实例已拆除，在途完成必须安全地变成空操作
		return nil
	}
	if err != nil {
		zap.L().Debug("拉取回复失败，保留原有状态",
			zap.Int("comment_id", t.commentID),
			zap.Error(err))
		return nil
	}
	if seq != t.fetchSeq {
		// 已被更新的拉取超越，丢弃本次结果
		return nil
	}
	t.fetched = DeltaReplies(t.known, replies)
	return nil
}

// Canonical 返回规范序列。每次都重新计算，不跨合并缓存。
func (t *Thread) Canonical() []*model.Reply {
	t.mu.Lock()
	defer t.mu.Unlock()
	return MergeReplies(t.known, t.fetched)
}

// Visible 返回当前应展示的回复：默认取规范序列前
// MaxRepliesDisplay 条，ShowAll 之后展示全部
func (t *Thread) Visible() []*model.Reply {
	t.mu.Lock()
	defer t.mu.Unlock()
	canonical := MergeReplies(t.known, t.fetched)
	if t.showAll || len(canonical) <= MaxRepliesDisplay {
		return canonical
	}
	return canonical[:MaxRepliesDisplay]
}

// HasMore 报告是否还有未展示的回复
func (t *Thread) HasMore() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.showAll && len(MergeReplies(t.known, t.fetched)) > MaxRepliesDisplay
}

// ShowAll 展开全部回复。单向开关，会话内不可逆。
func (t *Thread) ShowAll() {
	t.mu.Lock()
	t.showAll = true
	t.mu.Unlock()
}

// Loading 报告是否有网络操作在途
func (t *Thread) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inflight > 0
}

// ShowEmpty 报告是否应展示"暂无回复"。
// 规范序列为空且没有拉取在途时才成立，加载中绝不闪现空态。
func (t *Thread) ShowEmpty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(MergeReplies(t.known, t.fetched)) == 0 && t.inflight == 0
}

// RequestDelete 标记一条待删除回复。同一时刻只允许一条待删除，
// 再次请求会替换之前的待删除项，不排队。
func (t *Thread) RequestDelete(reply *model.Reply) {
	t.mu.Lock()
	if !t.closed {
		t.pendingDelete = reply
	}
	t.mu.Unlock()
}

// PendingDelete 返回当前待删除的回复，没有则为 nil
func (t *Thread) PendingDelete() *model.Reply {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingDelete
}

// CancelDelete 清除待删除状态，不做任何变更
func (t *Thread) CancelDelete() {
	t.mu.Lock()
	t.pendingDelete = nil
	t.mu.Unlock()
}

// ConfirmDelete 执行两阶段删除的第二阶段：
// 先乐观地从本地副本移除目标回复（不等远端往返），
// 再向规范存储发出删除。远端失败时回滚乐观移除并返回错误，
// 成功时通知父评论回减计数。同一实例同时只允许一个删除在途。
func (t *Thread) ConfirmDelete(ctx context.Context) error {
	t.mu.Lock()
	if t.closed || t.pendingDelete == nil {
		t.mu.Unlock()
		return nil
	}
	if t.deleting {
		t.mu.Unlock()
		return errors.New(errors.ErrDeleteInFlight, "已有删除操作在途")
	}
	target := t.pendingDelete
	t.deleting = true
	t.inflight++

	// 乐观移除：记录目标在两个集合里的原位置，
	// 失败时只把目标按位放回，不做整体快照回滚，
	// 否则会覆盖删除在途期间完成的新拉取结果
	knownIdx := replyIndex(t.known, target.ID)
	fetchedIdx := replyIndex(t.fetched, target.ID)
	seqAtRemoval := t.fetchSeq
	t.known = removeReply(t.known, target.ID)
	t.fetched = removeReply(t.fetched, target.ID)
	t.mu.Unlock()

	err := t.deleter.DeleteReply(ctx, target.ID)

	t.mu.Lock()
	t.inflight--
	t.deleting = false
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	if err != nil {
		// 本地与远端不允许静默分叉：把目标放回原处。
		// fetched 只在没有更新的拉取落地时才回插，
		// 新拉取反映的就是删除失败后的远端状态
		if knownIdx >= 0 && replyIndex(t.known, target.ID) < 0 {
			t.known = insertReply(t.known, knownIdx, target)
		}
		if fetchedIdx >= 0 && t.fetchSeq == seqAtRemoval && replyIndex(t.fetched, target.ID) < 0 {
			t.fetched = insertReply(t.fetched, fetchedIdx, target)
		}
		t.pendingDelete = nil
		t.mu.Unlock()
		zap.L().Error("删除回复失败，已回滚本地移除",
			zap.Int("reply_id", target.ID),
			zap.Error(err))
		return errors.Wrap(errors.ErrReplyDeleteFailed, "删除回复失败", err)
	}
	t.pendingDelete = nil
	cb := t.onReplyDeleted
	t.mu.Unlock()

	if cb != nil {
		cb(target.ID)
	}
	return nil
}

// Close 拆除实例。之后所有在途完成都是空操作。
func (t *Thread) Close() {
	t.mu.Lock()
	t.closed = true
	t.pendingDelete = nil
	t.mu.Unlock()
}

func replyIndex(replies []*model.Reply, id int) int {
	for i, r := range replies {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func insertReply(replies []*model.Reply, idx int, reply *model.Reply) []*model.Reply {
	if idx < 0 || idx > len(replies) {
		idx = len(replies)
	}
	out := make([]*model.Reply, 0, len(replies)+1)
	out = append(out, replies[:idx]...)
	out = append(out, reply)
	out = append(out, replies[idx:]...)
	return out
}

func removeReply(replies []*model.Reply, id int) []*model.Reply {
	out := make([]*model.Reply, 0, len(replies))
	for _, r := range replies {
		if r.ID == id {
			continue
		}
		out = append(out, r)
	}
	return out
}
