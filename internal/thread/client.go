package thread

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"matbook-backend/internal/model"
)

// Client 是基于 HTTP 的 ReplyFetcher / ReplyDeleter 实现，
// 面向承载回复接口的后端：
//   GET    {base}/api/comments/{id}/replies -> 回复 JSON 数组
//   DELETE {base}/api/replies/{id}
// 只有 2xx 视为成功，其他状态码一律按失败返回，
// 由 Thread 决定静默跳过还是回滚。
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken 设置随请求携带的 Bearer 令牌（删除接口需要认证）
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) FetchReplies(ctx context.Context, commentID int) ([]*model.Reply, error) {
	url := fmt.Sprintf("%s/api/comments/%d/replies", c.baseURL, commentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("拉取回复返回意外状态码: %d", resp.StatusCode)
	}

	var replies []*model.Reply
	if err := json.NewDecoder(resp.Body).Decode(&replies); err != nil {
		return nil, err
	}
	return replies, nil
}

func (c *Client) DeleteReply(ctx context.Context, replyID int) error {
	url := fmt.Sprintf("%s/api/replies/%d", c.baseURL, replyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("删除回复返回意外状态码: %d", resp.StatusCode)
	}
	return nil
}
