package mysql

import (
	"database/sql"
	"encoding/base64"
	"strconv"

	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
	"matbook-backend/internal/util"

	"go.uber.org/zap"
)

type feedRepository struct {
	db *sql.DB
}

func NewFeedRepository(db *sql.DB) *feedRepository {
	return &feedRepository{db: db}
}

// 游标对调用方不透明，实现上是 base64 编码的最后一条帖子ID。
// 调用方只能原样传回，nil 是唯一合法的"没有下一页"标记。

func encodeCursor(id int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(id)))
}

func decodeCursor(cursor string) (int, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(raw))
}

func (r *feedRepository) CreatePost(post *model.Post, attachments []model.Attachment) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 插入帖子
	query := `INSERT INTO posts (user_id, content, created_at, updated_at)
              VALUES (?, ?, NOW(), NOW())`
	result, err := tx.Exec(query, post.UserID, post.Content)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		return err
	}

	postID, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新帖子ID失败", zap.Error(err))
		return err
	}
	post.ID = int(postID)

	// 插入附件，按 Position 保序
	if len(attachments) > 0 {
		query = `INSERT INTO post_attachments (post_id, url, media_type, position, created_at)
                 VALUES (?, ?, ?, ?, NOW())`
		for i := range attachments {
			attachments[i].PostID = post.ID
			_, err = tx.Exec(query, post.ID, attachments[i].URL, attachments[i].MediaType, attachments[i].Position)
			if err != nil {
				util.Logger.Error("插入帖子附件失败", zap.Error(err))
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return err
	}

	util.Logger.Info("帖子创建成功", zap.Int("post_id", post.ID))
	return nil
}

func (r *feedRepository) GetPostByID(id int, spec projection.PostSpec) (*model.PostData, error) {
	query := `
        SELECT p.id, p.user_id, p.content, p.created_at, p.updated_at
        FROM posts p
        WHERE p.id = ?`

	var post model.Post
	err := r.db.QueryRow(query, id).Scan(
		&post.ID, &post.UserID, &post.Content,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return r.loadPostData(&post, spec)
}

// loadPostData 按帖子投影规格补全关联字段。
// 所有返回 PostData 的路径都经过这里，投影形状不会漂移。
func (r *feedRepository) loadPostData(post *model.Post, spec projection.PostSpec) (*model.PostData, error) {
	data := &model.PostData{
		Post:        *post,
		Attachments: make([]model.Attachment, 0),
		Likes:       make([]model.LikeRef, 0, 1),
		Bookmarks:   make([]model.BookmarkRef, 0, 1),
	}

	// 作者投影，复用用户规格
	author, err := r.db.Query(`SELECT `+userColumns+` FROM users WHERE id = ?`, post.UserID)
	if err != nil {
		return nil, err
	}
	var user model.User
	if author.Next() {
		err = author.Scan(
			&user.ID, &user.Username, &user.DisplayName,
			&user.AvatarURL, &user.Bio,
			&user.CreatedAt, &user.UpdatedAt,
		)
	}
	author.Close()
	if err != nil {
		return nil, err
	}
	userData, err := loadUserData(r.db, &user, spec.User)
	if err != nil {
		return nil, err
	}
	data.User = *userData

	// 附件有序序列
	rows, err := r.db.Query(`
        SELECT id, post_id, url, media_type, position, created_at
        FROM post_attachments WHERE post_id = ?
        ORDER BY position ASC`, post.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.PostID, &a.URL, &a.MediaType, &a.Position, &a.CreatedAt); err != nil {
			return nil, err
		}
		data.Attachments = append(data.Attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 查看者范围的点赞行，至多一行
	var likerID int
	err = r.db.QueryRow(`
        SELECT user_id FROM post_likes
        WHERE post_id = ? AND user_id = ?
        LIMIT 1`, post.ID, spec.ViewerID).Scan(&likerID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		data.Likes = append(data.Likes, model.LikeRef{UserID: likerID})
	}

	// 查看者范围的收藏行，至多一行
	var bookmarkerID int
	err = r.db.QueryRow(`
        SELECT user_id FROM bookmarks
        WHERE post_id = ? AND user_id = ?
        LIMIT 1`, post.ID, spec.ViewerID).Scan(&bookmarkerID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		data.Bookmarks = append(data.Bookmarks, model.BookmarkRef{UserID: bookmarkerID})
	}

	// 聚合计数
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM post_likes WHERE post_id = ?`, post.ID).Scan(&data.Counts.Likes); err != nil {
		return nil, err
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE post_id = ?`, post.ID).Scan(&data.Counts.Comments); err != nil {
		return nil, err
	}

	return data, nil
}

func (r *feedRepository) DeletePost(id int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM post_likes WHERE post_id = ?`,
		`DELETE FROM bookmarks WHERE post_id = ?`,
		`DELETE FROM post_attachments WHERE post_id = ?`,
		`DELETE r FROM replies r JOIN comments c ON r.comment_id = c.id WHERE c.post_id = ?`,
		`DELETE cl FROM comment_likes cl JOIN comments c ON cl.comment_id = c.id WHERE c.post_id = ?`,
		`DELETE FROM comments WHERE post_id = ?`,
		`DELETE FROM posts WHERE id = ?`,
	} {
		if _, err := tx.Exec(query, id); err != nil {
			util.Logger.Error("删除帖子失败", zap.Error(err), zap.Int("post_id", id))
			return err
		}
	}

	return tx.Commit()
}

// listPostsPage 统一的游标分页查询：多取一行判断是否有下一页
func (r *feedRepository) listPostsPage(baseQuery string, args []interface{}, spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	query := baseQuery
	if cursor != nil {
		lastID, err := decodeCursor(*cursor)
		if err != nil {
			util.Logger.Warn("无效的分页游标", zap.Error(err))
			return nil, err
		}
		query += ` AND p.id < ?`
		args = append(args, lastID)
	}
	query += ` ORDER BY p.id DESC LIMIT ?`
	args = append(args, pageSize+1)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(&post.ID, &post.UserID, &post.Content, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &model.PostsPage{Posts: make([]*model.PostData, 0, len(posts))}
	hasMore := len(posts) > pageSize
	if hasMore {
		posts = posts[:pageSize]
	}

	for _, post := range posts {
		data, err := r.loadPostData(post, spec)
		if err != nil {
			return nil, err
		}
		page.Posts = append(page.Posts, data)
	}

	if hasMore && len(posts) > 0 {
		next := encodeCursor(posts[len(posts)-1].ID)
		page.NextCursor = &next
	}
	return page, nil
}

func (r *feedRepository) ListPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	query := `
        SELECT p.id, p.user_id, p.content, p.created_at, p.updated_at
        FROM posts p
        WHERE 1 = 1`
	return r.listPostsPage(query, nil, spec, cursor, pageSize)
}

func (r *feedRepository) ListFollowingPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	query := `
        SELECT p.id, p.user_id, p.content, p.created_at, p.updated_at
        FROM posts p
        JOIN follows f ON p.user_id = f.followed_id
        WHERE f.follower_id = ?`
	return r.listPostsPage(query, []interface{}{spec.ViewerID}, spec, cursor, pageSize)
}

func (r *feedRepository) ListBookmarkedPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	query := `
        SELECT p.id, p.user_id, p.content, p.created_at, p.updated_at
        FROM posts p
        JOIN bookmarks b ON p.id = b.post_id
        WHERE b.user_id = ?`
	return r.listPostsPage(query, []interface{}{spec.ViewerID}, spec, cursor, pageSize)
}

func (r *feedRepository) ListUserPosts(userID int, spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	query := `
        SELECT p.id, p.user_id, p.content, p.created_at, p.updated_at
        FROM posts p
        WHERE p.user_id = ?`
	return r.listPostsPage(query, []interface{}{userID}, spec, cursor, pageSize)
}

func (r *feedRepository) CreateComment(comment *model.Comment) error {
	query := `INSERT INTO comments (post_id, user_id, content, created_at)
              VALUES (?, ?, ?, NOW())`
	result, err := r.db.Exec(query, comment.PostID, comment.UserID, comment.Content)
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err))
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	comment.ID = int(id)
	return nil
}

func (r *feedRepository) GetCommentByID(id int, spec projection.CommentSpec) (*model.CommentData, error) {
	query := `SELECT id, post_id, user_id, content, created_at FROM comments WHERE id = ?`

	var comment model.Comment
	err := r.db.QueryRow(query, id).Scan(
		&comment.ID, &comment.PostID, &comment.UserID,
		&comment.Content, &comment.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return r.loadCommentData(&comment, spec)
}

func (r *feedRepository) loadCommentData(comment *model.Comment, spec projection.CommentSpec) (*model.CommentData, error) {
	data := &model.CommentData{
		Comment: *comment,
		Likes:   make([]model.LikeRef, 0),
	}

	var user model.User
	err := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, comment.UserID).Scan(
		&user.ID, &user.Username, &user.DisplayName,
		&user.AvatarURL, &user.Bio,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	userData, err := loadUserData(r.db, &user, spec.User)
	if err != nil {
		return nil, err
	}
	data.User = *userData

	// 评论点赞集合不按查看者过滤，派生层只做成员判断
	rows, err := r.db.Query(`SELECT user_id FROM comment_likes WHERE comment_id = ?`, comment.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ref model.LikeRef
		if err := rows.Scan(&ref.UserID); err != nil {
			return nil, err
		}
		data.Likes = append(data.Likes, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	data.Counts.Likes = len(data.Likes)

	return data, nil
}

func (r *feedRepository) ListComments(postID int, spec projection.CommentSpec, page, pageSize int) ([]*model.CommentData, error) {
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(`
        SELECT id, post_id, user_id, content, created_at
        FROM comments WHERE post_id = ?
        ORDER BY created_at ASC, id ASC
        LIMIT ? OFFSET ?`, postID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]*model.CommentData, 0, len(comments))
	for _, c := range comments {
		data, err := r.loadCommentData(c, spec)
		if err != nil {
			return nil, err
		}
		result = append(result, data)
	}
	return result, nil
}

func (r *feedRepository) DeleteComment(id int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM replies WHERE comment_id = ?`,
		`DELETE FROM comment_likes WHERE comment_id = ?`,
		`DELETE FROM comments WHERE id = ?`,
	} {
		if _, err := tx.Exec(query, id); err != nil {
			util.Logger.Error("删除评论失败", zap.Error(err), zap.Int("comment_id", id))
			return err
		}
	}
	return tx.Commit()
}

func (r *feedRepository) CreateReply(reply *model.Reply) error {
	query := `INSERT INTO replies (comment_id, user_id, content, created_at)
              VALUES (?, ?, ?, NOW())`
	result, err := r.db.Exec(query, reply.CommentID, reply.UserID, reply.Content)
	if err != nil {
		util.Logger.Error("创建回复失败", zap.Error(err))
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	reply.ID = int(id)
	return nil
}

const replySelect = `
        SELECT r.id, r.comment_id, r.user_id, r.content, r.created_at,
               u.username, u.display_name, u.avatar_url
        FROM replies r
        LEFT JOIN users u ON r.user_id = u.id`

func scanReply(rows *sql.Rows) (*model.Reply, error) {
	var reply model.Reply
	err := rows.Scan(
		&reply.ID, &reply.CommentID, &reply.UserID,
		&reply.Content, &reply.CreatedAt,
		&reply.User.Username, &reply.User.DisplayName, &reply.User.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *feedRepository) GetReplyByID(id int) (*model.Reply, error) {
	rows, err := r.db.Query(replySelect+` WHERE r.id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanReply(rows)
}

func (r *feedRepository) ListReplies(commentID int) ([]*model.Reply, error) {
	// 回复按创建时间升序返回，合并层假定每个来源序列本身有序
	rows, err := r.db.Query(replySelect+`
        WHERE r.comment_id = ?
        ORDER BY r.created_at ASC, r.id ASC`, commentID)
	if err != nil {
		util.Logger.Error("查询回复列表失败", zap.Error(err), zap.Int("comment_id", commentID))
		return nil, err
	}
	defer rows.Close()

	replies := make([]*model.Reply, 0)
	for rows.Next() {
		reply, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		replies = append(replies, reply)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return replies, nil
}

func (r *feedRepository) DeleteReply(id int) error {
	_, err := r.db.Exec(`DELETE FROM replies WHERE id = ?`, id)
	if err != nil {
		util.Logger.Error("删除回复失败", zap.Error(err), zap.Int("reply_id", id))
	}
	return err
}

func (r *feedRepository) CreateLike(userID, postID int) error {
	// INSERT IGNORE 保证点赞幂等
	_, err := r.db.Exec(`INSERT IGNORE INTO post_likes (user_id, post_id, created_at) VALUES (?, ?, NOW())`, userID, postID)
	return err
}

func (r *feedRepository) DeleteLike(userID, postID int) error {
	_, err := r.db.Exec(`DELETE FROM post_likes WHERE user_id = ? AND post_id = ?`, userID, postID)
	return err
}

func (r *feedRepository) GetLikeCount(postID int) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM post_likes WHERE post_id = ?`, postID).Scan(&count)
	return count, err
}

func (r *feedRepository) CreateCommentLike(userID, commentID int) error {
	_, err := r.db.Exec(`INSERT IGNORE INTO comment_likes (user_id, comment_id, created_at) VALUES (?, ?, NOW())`, userID, commentID)
	return err
}

func (r *feedRepository) DeleteCommentLike(userID, commentID int) error {
	_, err := r.db.Exec(`DELETE FROM comment_likes WHERE user_id = ? AND comment_id = ?`, userID, commentID)
	return err
}

func (r *feedRepository) CreateBookmark(userID, postID int) error {
	_, err := r.db.Exec(`INSERT IGNORE INTO bookmarks (user_id, post_id, created_at) VALUES (?, ?, NOW())`, userID, postID)
	return err
}

func (r *feedRepository) DeleteBookmark(userID, postID int) error {
	_, err := r.db.Exec(`DELETE FROM bookmarks WHERE user_id = ? AND post_id = ?`, userID, postID)
	return err
}

func (r *feedRepository) CreateFollow(follow *model.Follow) error {
	_, err := r.db.Exec(`INSERT IGNORE INTO follows (follower_id, followed_id, created_at) VALUES (?, ?, NOW())`,
		follow.FollowerID, follow.FollowedID)
	if err != nil {
		util.Logger.Error("创建关注关系失败", zap.Error(err))
	}
	return err
}

func (r *feedRepository) DeleteFollow(followerID, followedID int) error {
	_, err := r.db.Exec(`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`, followerID, followedID)
	return err
}

func (r *feedRepository) GetFollowerCount(userID int) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM follows WHERE followed_id = ?`, userID).Scan(&count)
	return count, err
}

func (r *feedRepository) IsFollowing(followerID, followedID int) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM follows WHERE follower_id = ? AND followed_id = ? LIMIT 1`,
		followerID, followedID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
