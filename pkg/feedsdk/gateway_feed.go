package feedsdk

import (
	"context"
	"fmt"
	"net/http"
)

// Feed and post operations. Everything here flows through Do, so a stale
// token on any of these calls heals itself via the gateway's single
// refresh-and-retry.

// Posts fetches one page of a timeline. Pages are 1-based; page 0 means
// the first page.
func (g *Gateway) Posts(ctx context.Context, feed Feed, page int) (*PostPage, error) {
	path := fmt.Sprintf("/get_posts/%s", feed)
	if page > 1 {
		path = fmt.Sprintf("%s?page=%d", path, page)
	}

	resp, err := g.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var postPage PostPage
	if err := decodeJSON(resp, &postPage, http.StatusOK); err != nil {
		return nil, err
	}

	return &postPage, nil
}

// NewPost publishes a post. The server rejects empty content with a 400.
func (g *Gateway) NewPost(ctx context.Context, content string) (*Post, error) {
	resp, err := g.Do(ctx, http.MethodPost, "/newpost", map[string]string{"content": content})
	if err != nil {
		return nil, err
	}

	var post Post
	if err := decodeJSON(resp, &post, http.StatusCreated); err != nil {
		return nil, err
	}

	return &post, nil
}

// EditPost replaces a post's content. Only the author may edit.
func (g *Gateway) EditPost(ctx context.Context, postID int64, content string) (*Post, error) {
	path := fmt.Sprintf("/posts/%d/edit", postID)

	resp, err := g.Do(ctx, http.MethodPatch, path, map[string]string{"content": content})
	if err != nil {
		return nil, err
	}

	var post Post
	if err := decodeJSON(resp, &post, http.StatusOK); err != nil {
		return nil, err
	}

	return &post, nil
}

// DeletePost removes a post. Only the author may delete.
func (g *Gateway) DeletePost(ctx context.Context, postID int64) error {
	path := fmt.Sprintf("/posts/%d/delete", postID)

	resp, err := g.Do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}

	return decodeJSON(resp, nil, http.StatusOK)
}

// ToggleLike likes the post if not yet liked, unlikes otherwise, and
// returns the post with updated counters.
func (g *Gateway) ToggleLike(ctx context.Context, postID int64) (*Post, error) {
	path := fmt.Sprintf("/posts/%d/like", postID)

	resp, err := g.Do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := decodeJSON(resp, &post, http.StatusOK); err != nil {
		return nil, err
	}

	return &post, nil
}

// Likers lists the users who liked a post.
func (g *Gateway) Likers(ctx context.Context, postID int64) ([]User, error) {
	path := fmt.Sprintf("/posts/%d/likers", postID)

	resp, err := g.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var users []User
	if err := decodeJSON(resp, &users, http.StatusOK); err != nil {
		return nil, err
	}

	return users, nil
}

// Comments lists a post's comments, newest first.
func (g *Gateway) Comments(ctx context.Context, postID int64) ([]Comment, error) {
	path := fmt.Sprintf("/posts/%d/comments", postID)

	resp, err := g.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var comments []Comment
	if err := decodeJSON(resp, &comments, http.StatusOK); err != nil {
		return nil, err
	}

	return comments, nil
}

// AddComment appends a comment to a post.
func (g *Gateway) AddComment(ctx context.Context, postID int64, content string) (*Comment, error) {
	path := fmt.Sprintf("/posts/%d/comments", postID)

	resp, err := g.Do(ctx, http.MethodPost, path, map[string]string{"content": content})
	if err != nil {
		return nil, err
	}

	var comment Comment
	if err := decodeJSON(resp, &comment, http.StatusCreated); err != nil {
		return nil, err
	}

	return &comment, nil
}
