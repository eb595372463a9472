package app

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/flocknet/flock/pkg/feedsdk"
)

// Feed and social commands. Every one of these starts with requireUser, so
// a stale persisted token heals through silent refresh before the first
// real request, and a dead session fails fast with a sign-in hint.

func (app *Application) cmdFeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	fs.SetOutput(app.out)
	page := fs.Int("page", 1, "page number")
	following := fs.Bool("following", false, "only people you follow")
	mine := fs.Bool("mine", false, "only your own posts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := app.requireUser(ctx, "/feed"); err != nil {
		return err
	}

	feed := feedsdk.FeedAll
	switch {
	case *following:
		feed = feedsdk.FeedFollowing
	case *mine:
		feed = feedsdk.FeedOwn
	}

	postPage, err := app.gateway.Posts(ctx, feed, *page)
	if err != nil {
		return err
	}

	for _, post := range postPage.Results {
		app.printPost(post)
	}
	if postPage.Next != nil {
		fmt.Fprintf(app.out, "more: flock feed -page %d\n", *page+1)
	}
	return nil
}

func (app *Application) cmdPost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	fs.SetOutput(app.out)
	edit := fs.Int64("edit", 0, "post id to edit instead of creating")
	remove := fs.Int64("delete", 0, "post id to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := app.requireUser(ctx, "/post"); err != nil {
		return err
	}

	if *remove != 0 {
		if err := app.gateway.DeletePost(ctx, *remove); err != nil {
			return err
		}
		fmt.Fprintf(app.out, "deleted post %d\n", *remove)
		return nil
	}

	content := strings.Join(fs.Args(), " ")
	if content == "" {
		return fmt.Errorf("post needs content")
	}

	if *edit != 0 {
		post, err := app.gateway.EditPost(ctx, *edit, content)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.out, "edited post %d\n", post.ID)
		return nil
	}

	post, err := app.gateway.NewPost(ctx, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "posted as %d\n", post.ID)
	return nil
}

func (app *Application) cmdLike(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("like", flag.ContinueOnError)
	fs.SetOutput(app.out)
	likers := fs.Bool("likers", false, "list who liked instead of toggling")
	if err := fs.Parse(args); err != nil {
		return err
	}

	postID, err := parsePostID(fs.Args())
	if err != nil {
		return err
	}

	if err := app.requireUser(ctx, "/like"); err != nil {
		return err
	}

	if *likers {
		users, err := app.gateway.Likers(ctx, postID)
		if err != nil {
			return err
		}
		for _, user := range users {
			fmt.Fprintln(app.out, user.Username)
		}
		return nil
	}

	post, err := app.gateway.ToggleLike(ctx, postID)
	if err != nil {
		return err
	}
	if post.Liked {
		fmt.Fprintf(app.out, "liked post %d (%d likes)\n", post.ID, post.Likes)
	} else {
		fmt.Fprintf(app.out, "unliked post %d (%d likes)\n", post.ID, post.Likes)
	}
	return nil
}

func (app *Application) cmdComments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comments", flag.ContinueOnError)
	fs.SetOutput(app.out)
	add := fs.String("add", "", "add this comment instead of listing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	postID, err := parsePostID(fs.Args())
	if err != nil {
		return err
	}

	if err := app.requireUser(ctx, "/comments"); err != nil {
		return err
	}

	if *add != "" {
		comment, err := app.gateway.AddComment(ctx, postID, *add)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.out, "commented as %d\n", comment.ID)
		return nil
	}

	comments, err := app.gateway.Comments(ctx, postID)
	if err != nil {
		return err
	}
	for _, comment := range comments {
		fmt.Fprintf(app.out, "%s: %s\n", comment.User, comment.Content)
	}
	return nil
}

func (app *Application) cmdFollow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("follow", flag.ContinueOnError)
	fs.SetOutput(app.out)
	list := fs.String("list", "", "list 'followers' or 'following' instead of toggling")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if len(fs.Args()) != 1 {
		return fmt.Errorf("follow needs a username")
	}
	username := fs.Arg(0)

	if err := app.requireUser(ctx, "/follow"); err != nil {
		return err
	}

	if *list != "" {
		kind := feedsdk.FollowKind(*list)
		if kind != feedsdk.FollowKindFollowers && kind != feedsdk.FollowKindFollowing {
			return fmt.Errorf("-list must be 'followers' or 'following'")
		}

		users, err := app.gateway.FollowList(ctx, username, kind)
		if err != nil {
			return err
		}
		for _, user := range users {
			fmt.Fprintln(app.out, user.Username)
		}
		return nil
	}

	status, err := app.gateway.ToggleFollow(ctx, username)
	if err != nil {
		return err
	}
	if status.IsFollowing {
		fmt.Fprintf(app.out, "following %s (%d followers)\n", username, status.Followers)
	} else {
		fmt.Fprintf(app.out, "unfollowed %s (%d followers)\n", username, status.Followers)
	}
	return nil
}

func (app *Application) cmdProfile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(app.out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := app.requireUser(ctx, "/profile"); err != nil {
		return err
	}

	username := fs.Arg(0)
	if username == "" {
		username = app.state.Get().Identity.Username
	}

	profile, err := app.gateway.Profile(ctx, username)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "%s (%s)\n", profile.Username, profile.Name)
	fmt.Fprintf(app.out, "%d followers, %d following\n", profile.Followers, profile.Following)
	for _, post := range profile.Posts {
		app.printPost(post)
	}
	return nil
}

func (app *Application) printPost(post feedsdk.Post) {
	fmt.Fprintf(app.out, "#%d @%s  %s\n", post.ID, post.User.Username, post.Timestamp)
	fmt.Fprintf(app.out, "  %s\n", post.Content)
	fmt.Fprintf(app.out, "  %d likes, %d comments\n", post.Likes, post.Comments)
}

func parsePostID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a post id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid post id %q", args[0])
	}
	return id, nil
}
