package mysql

import (
	"database/sql"

	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
	"matbook-backend/internal/util"

	"go.uber.org/zap"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, display_name, avatar_url, bio, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Username, &user.DisplayName,
		&user.AvatarURL, &user.Bio,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`
	return scanUser(r.db.QueryRow(query, id))
}

func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? AND deleted_at IS NULL`
	return scanUser(r.db.QueryRow(query, username))
}

func (r *userRepository) FindUserData(id int, spec projection.UserSpec) (*model.UserData, error) {
	user, err := r.FindByID(id)
	if err != nil || user == nil {
		return nil, err
	}
	return loadUserData(r.db, user, spec)
}

func (r *userRepository) FindUserDataByUsername(username string, spec projection.UserSpec) (*model.UserData, error) {
	user, err := r.FindByUsername(username)
	if err != nil || user == nil {
		return nil, err
	}
	return loadUserData(r.db, user, spec)
}

// loadUserData 按用户投影规格补全关联字段。
// 同一规格在所有取数路径复用，保证投影形状一致。
// 成员集合始终初始化为非 nil 空切片：nil 留给"未投影"这一含义。
func loadUserData(db *sql.DB, user *model.User, spec projection.UserSpec) (*model.UserData, error) {
	data := &model.UserData{
		User:         *user,
		Followers:    make([]model.FollowRef, 0, 1),
		Likes:        make([]model.LikeRef, 0),
		CommentLikes: make([]model.LikeRef, 0),
	}

	// 查看者范围的关注关系：只按查看者ID过滤,至多一行
	var followerID int
	err := db.QueryRow(`
        SELECT follower_id FROM follows
        WHERE followed_id = ? AND follower_id = ?
        LIMIT 1`, user.ID, spec.ViewerID).Scan(&followerID)
	if err != nil && err != sql.ErrNoRows {
		util.Logger.Error("查询查看者关注关系失败", zap.Error(err))
		return nil, err
	}
	if err == nil {
		data.Followers = append(data.Followers, model.FollowRef{FollowerID: followerID})
	}

	// 查看者对该用户帖子的点赞
	rows, err := db.Query(`
        SELECT pl.user_id FROM post_likes pl
        JOIN posts p ON pl.post_id = p.id
        WHERE p.user_id = ? AND pl.user_id = ?`, user.ID, spec.ViewerID)
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

	// 查看者对该用户评论的点赞
	clRows, err := db.Query(`
        SELECT cl.user_id FROM comment_likes cl
        JOIN comments c ON cl.comment_id = c.id
        WHERE c.user_id = ? AND cl.user_id = ?`, user.ID, spec.ViewerID)
	if err != nil {
		return nil, err
	}
	defer clRows.Close()
	for clRows.Next() {
		var ref model.LikeRef
		if err := clRows.Scan(&ref.UserID); err != nil {
			return nil, err
		}
		data.CommentLikes = append(data.CommentLikes, ref)
	}
	if err := clRows.Err(); err != nil {
		return nil, err
	}

	// 聚合计数，与查看者范围集合相互独立
	counts := &data.Counts
	countQueries := []struct {
		dest  *int
		query string
	}{
		{&counts.Posts, `SELECT COUNT(*) FROM posts WHERE user_id = ?`},
		{&counts.Followers, `SELECT COUNT(*) FROM follows WHERE followed_id = ?`},
		{&counts.Likes, `SELECT COUNT(*) FROM post_likes pl JOIN posts p ON pl.post_id = p.id WHERE p.user_id = ?`},
		{&counts.Comments, `SELECT COUNT(*) FROM comments WHERE user_id = ?`},
		{&counts.CommentLikes, `SELECT COUNT(*) FROM comment_likes cl JOIN comments c ON cl.comment_id = c.id WHERE c.user_id = ?`},
	}
	for _, cq := range countQueries {
		if err := db.QueryRow(cq.query, user.ID).Scan(cq.dest); err != nil {
			util.Logger.Error("查询用户聚合计数失败", zap.Error(err))
			return nil, err
		}
	}

	return data, nil
}

func (r *userRepository) Update(user *model.User) error {
	query := `UPDATE users SET display_name = ?, avatar_url = ?, bio = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.db.Exec(query, user.DisplayName, user.AvatarURL, user.Bio, user.ID)
	if err != nil {
		util.Logger.Error("更新用户失败", zap.Error(err), zap.Int("user_id", user.ID))
	}
	return err
}

func (r *userRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&count)
	return count, err
}
