package feed

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"postfeed/auth"
	"postfeed/domain"
)

func validatePostInput(title, content string) error {
	return checkFields(map[string]error{
		"title":   validation.Validate(title, validation.Required, validation.Length(5, 0)),
		"content": validation.Validate(content, validation.Required, validation.Length(5, 0)),
	})
}

// CreatePost persists a new post for the authenticated caller and links
// it to the owning account. The image must already be an accepted media
// asset; a nil asset fails validation before anything is written.
func (s *Store) CreatePost(ctx context.Context, identity auth.Result, title, content string, asset *domain.MediaAsset) (*domain.Post, error) {
	if !identity.Authenticated {
		return nil, domain.ErrUnauthenticated
	}

	title = clean(title)
	content = clean(content)
	if err := validatePostInput(title, content); err != nil {
		return nil, err
	}
	if asset == nil {
		ve := &domain.ValidationError{}
		ve.Add("image", "no image provided")
		return nil, ve
	}

	lk := s.entity(identity.AccountID)
	lk.Lock()
	defer lk.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Storage("post create", err)
	}
	defer tx.Rollback()

	var creatorName string
	row := tx.QueryRowContext(ctx, "SELECT display_name FROM accounts WHERE id = ?", identity.AccountID)
	if err := row.Scan(&creatorName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, domain.Storage("post create", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO posts (id, title, content, image_key, creator_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, title, content, asset.StorageKey, identity.AccountID, now, now)
	if err != nil {
		return nil, domain.Storage("post insert", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO account_posts (account_id, post_id, relation_type, created_at, updated_at) VALUES (?, ?, 'AUTHOR', ?, ?)",
		identity.AccountID, id, now, now)
	if err != nil {
		return nil, domain.Storage("ownership insert", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Storage("post create", err)
	}

	post := &domain.Post{
		ID:        id,
		Title:     title,
		Content:   content,
		ImageKey:  asset.StorageKey,
		ImageURL:  PublicImagePath + asset.StorageKey,
		Creator:   domain.Creator{ID: identity.AccountID, Name: creatorName},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.publish(domain.ChangeEvent{
		Action:    domain.ActionCreate,
		Post:      post,
		PostID:    post.ID,
		EmittedAt: time.Now().UTC(),
	})

	return post, nil
}

// GetPost resolves a post by id. Reads need no identity.
func (s *Store) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.title, p.content, p.image_key, p.creator_id, a.display_name, p.created_at, p.updated_at
		FROM posts p JOIN accounts a ON a.id = p.creator_id
		WHERE p.id = ?`, postID)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Storage("post lookup", err)
	}
	return post, nil
}

// ListPosts returns one page of posts, newest first, plus the unfiltered
// total count. Pages are 1-indexed and a page past the data is an empty
// slice, not an error. The count and the page are two separate reads
// with no snapshot isolation between them: a concurrent writer can make
// the total disagree with the returned slice.
func (s *Store) ListPosts(ctx context.Context, page int) ([]domain.Post, int, error) {
	if page < 1 {
		page = 1
	}
	// keep the offset arithmetic below from wrapping for absurd pages;
	// anything this far out is empty either way
	if page > math.MaxInt/PerPage {
		page = math.MaxInt / PerPage
	}

	var total int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(id) FROM posts")
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.Storage("post count", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title, p.content, p.image_key, p.creator_id, a.display_name, p.created_at, p.updated_at
		FROM posts p JOIN accounts a ON a.id = p.creator_id
		ORDER BY p.created_at DESC, p.rowid DESC
		LIMIT ? OFFSET ?`, PerPage, (page-1)*PerPage)
	if err != nil {
		return nil, 0, domain.Storage("post list", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, domain.Storage("post list", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.Storage("post list", err)
	}

	return posts, total, nil
}

// UpdatePost replaces title, content and optionally the image of a post
// owned by the caller. On an image swap the row is committed pointing at
// the new asset before the old one is released, so a crash in between
// leaks at worst an orphaned file, never a dangling reference.
func (s *Store) UpdatePost(ctx context.Context, identity auth.Result, postID, title, content string, newAsset *domain.MediaAsset) (*domain.Post, error) {
	if !identity.Authenticated {
		return nil, domain.ErrUnauthenticated
	}

	title = clean(title)
	content = clean(content)
	if err := validatePostInput(title, content); err != nil {
		return nil, err
	}

	lk := s.entity(postID)
	lk.Lock()
	defer lk.Unlock()

	var oldKey, creatorID, creatorName string
	var createdAt time.Time
	row := s.db.QueryRowContext(ctx, `
		SELECT p.image_key, p.creator_id, a.display_name, p.created_at
		FROM posts p JOIN accounts a ON a.id = p.creator_id
		WHERE p.id = ?`, postID)
	if err := row.Scan(&oldKey, &creatorID, &creatorName, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Storage("post lookup", err)
	}
	if creatorID != identity.AccountID {
		return nil, domain.ErrForbidden
	}

	imageKey := oldKey
	if newAsset != nil {
		imageKey = newAsset.StorageKey
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		"UPDATE posts SET title = ?, content = ?, image_key = ?, updated_at = ? WHERE id = ?",
		title, content, imageKey, now, postID)
	if err != nil {
		return nil, domain.Storage("post update", err)
	}

	if newAsset != nil && oldKey != imageKey {
		s.release(oldKey)
	}

	post := &domain.Post{
		ID:        postID,
		Title:     title,
		Content:   content,
		ImageKey:  imageKey,
		ImageURL:  PublicImagePath + imageKey,
		Creator:   domain.Creator{ID: creatorID, Name: creatorName},
		CreatedAt: createdAt,
		UpdatedAt: now,
	}

	s.publish(domain.ChangeEvent{
		Action:    domain.ActionUpdate,
		Post:      post,
		PostID:    post.ID,
		EmittedAt: time.Now().UTC(),
	})

	return post, nil
}

// DeletePost removes a post owned by the caller, unlinks it from the
// owning account and releases its image. The row and the ownership link
// go in one transaction; the image release runs after commit and a
// failure there leaks a file at worst, which Release logs.
func (s *Store) DeletePost(ctx context.Context, identity auth.Result, postID string) error {
	if !identity.Authenticated {
		return domain.ErrUnauthenticated
	}

	lk := s.entity(postID)
	lk.Lock()
	defer lk.Unlock()

	var imageKey, creatorID string
	row := s.db.QueryRowContext(ctx, "SELECT image_key, creator_id FROM posts WHERE id = ?", postID)
	if err := row.Scan(&imageKey, &creatorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return domain.Storage("post lookup", err)
	}
	if creatorID != identity.AccountID {
		return domain.ErrForbidden
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Storage("post delete", err)
	}
	defer tx.Rollback()

	// Ownership link first: account_posts holds a foreign key on posts.
	res, err := tx.ExecContext(ctx, "DELETE FROM account_posts WHERE post_id = ?", postID)
	if err != nil {
		return domain.Storage("ownership delete", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", postID); err != nil {
		return domain.Storage("post delete", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Storage("post delete", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		s.logger.Error("post %s had no ownership row; store left consistent but flagged", postID)
	}

	s.release(imageKey)

	s.publish(domain.ChangeEvent{
		Action:    domain.ActionDelete,
		PostID:    postID,
		EmittedAt: time.Now().UTC(),
	})

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	p := domain.Post{}
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.ImageKey, &p.Creator.ID, &p.Creator.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ImageURL = PublicImagePath + p.ImageKey
	return &p, nil
}
