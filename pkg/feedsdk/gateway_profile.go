package feedsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/flocknet/flock/pkg/authstate"
)

// Profile and follow-graph operations.

// CurrentUser resolves the current token against the identity endpoint.
// This is the "who am I" lookup: identity is always derived from the
// server, never reconstructed from token claims.
func (g *Gateway) CurrentUser(ctx context.Context) (*authstate.Identity, error) {
	resp, err := g.Do(ctx, http.MethodGet, UserPath, nil)
	if err != nil {
		return nil, err
	}

	var identity authstate.Identity
	if err := decodeJSON(resp, &identity, http.StatusOK); err != nil {
		return nil, err
	}

	return &identity, nil
}

// Profile fetches a user's page: counters, follow relation, and posts.
func (g *Gateway) Profile(ctx context.Context, username string) (*Profile, error) {
	path := "/profile/" + url.PathEscape(username)

	resp, err := g.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := decodeJSON(resp, &profile, http.StatusOK); err != nil {
		return nil, err
	}

	return &profile, nil
}

// ToggleFollow follows the user if not already followed, unfollows
// otherwise, and returns the resulting relation and follower count.
func (g *Gateway) ToggleFollow(ctx context.Context, username string) (*FollowStatus, error) {
	path := fmt.Sprintf("/profile/%s/follow", url.PathEscape(username))

	resp, err := g.Do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}

	var status FollowStatus
	if err := decodeJSON(resp, &status, http.StatusOK); err != nil {
		return nil, err
	}

	return &status, nil
}

// FollowKind selects which side of the follow graph to list.
type FollowKind string

const (
	FollowKindFollowers FollowKind = "followers"
	FollowKindFollowing FollowKind = "following"
)

// FollowList returns the usernames on one side of a user's follow graph.
func (g *Gateway) FollowList(ctx context.Context, username string, kind FollowKind) ([]User, error) {
	path := fmt.Sprintf("/%s/%s", url.PathEscape(username), url.PathEscape(string(kind)))

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
