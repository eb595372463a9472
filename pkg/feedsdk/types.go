package feedsdk

// Response and request types mirror the wire format of the feed service.

// LoginResponse is returned from POST /login on success. The refresh
// credential arrives separately as an HTTP-only cookie handled by the
// transport's cookie jar; it never appears in any parsed type.
type LoginResponse struct {
	Access   string `json:"access"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// TokenResponse is returned from POST /token/refresh on success.
type TokenResponse struct {
	Access string `json:"access"`
}

// MessageResponse is the generic {"message": ...} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// User is the compact user reference embedded in posts and liker lists.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Post is a feed entry with its aggregate counters.
type Post struct {
	ID        int64  `json:"id"`
	User      User   `json:"user"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Likes     int    `json:"likes"`
	Liked     bool   `json:"liked"`
	Comments  int    `json:"comments"`
}

// PostPage is one page of a paginated feed.
type PostPage struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Post  `json:"results"`
}

// Comment is a single comment on a post. The user field is a bare username
// on the wire, unlike the embedded User object on posts.
type Comment struct {
	ID        int64  `json:"id"`
	User      string `json:"user"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Profile is a user's page: identity, follow counters, and their posts.
type Profile struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	IsFollowing bool   `json:"is_following"`
	Posts       []Post `json:"posts"`
}

// FollowStatus is returned after toggling a follow.
type FollowStatus struct {
	IsFollowing bool `json:"is_following"`
	Followers   int  `json:"followers"`
}

// Feed selects which timeline to fetch.
type Feed string

const (
	FeedAll       Feed = "all"
	FeedFollowing Feed = "following"
	FeedOwn       Feed = "user" // the signed-in user's own posts
)

// Flow distinguishes the two email-verification flows.
type Flow string

const (
	FlowRegister Flow = "register"
	FlowReset    Flow = "reset"
)

// RegisterRequest creates an account; Token is the single-use token from a
// completed email verification.
type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Token           string `json:"token"`
}

// VerifyEmailResponse is returned when a verification code is accepted.
// Token is single-use and feeds into registration or password reset.
type VerifyEmailResponse struct {
	Message  string `json:"message"`
	Verified bool   `json:"verified"`
	Token    string `json:"token"`
}
