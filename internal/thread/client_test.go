package thread

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestClientFetchReplies 测试客户端解析回复数组及令牌携带
func TestClientFetchReplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/comments/42/replies", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"comment_id":42,"content":"a"},{"id":2,"comment_id":42,"content":"b"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	client.SetToken("test-token")

	replies, err := client.FetchReplies(context.Background(), 42)

	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(replies))
	assert.Equal(t, "a", replies[0].Content)
}

// TestClientFetchRepliesNon2xx 测试非 2xx 状态码按失败返回
func TestClientFetchRepliesNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	replies, err := client.FetchReplies(context.Background(), 42)

	assert.Error(t, err)
	assert.Nil(t, replies)
}

func TestClientDeleteReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/replies/7", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.DeleteReply(context.Background(), 7)

	assert.NoError(t, err)
}

func TestClientDeleteReplyForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.DeleteReply(context.Background(), 7)

	assert.Error(t, err)
}
