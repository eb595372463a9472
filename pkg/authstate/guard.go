package authstate

// Guards are pure functions of State. They never trigger network calls or
// refresh logic; they only tell the caller what to do with the current
// route: wait, render, or redirect.

// Action is what a guard wants the caller to do.
type Action int

const (
	// ActionWait means the state is still Pending: render nothing, not even
	// a redirect, until it resolves.
	ActionWait Action = iota

	// ActionRender means the guarded content may be shown.
	ActionRender

	// ActionRedirect means navigate to Decision.Target instead.
	ActionRedirect
)

// Decision is a guard's verdict.
type Decision struct {
	Action Action

	// Target is the redirect destination when Action is ActionRedirect.
	Target string

	// From is the originating path, carried so the destination can return
	// the user after they sign in.
	From string

	// Reason is a human-readable explanation the destination can surface.
	Reason string

	// ReplaceHistory indicates the redirect should replace the current
	// history entry so back-navigation cannot return here.
	ReplaceHistory bool
}

// Route entry points the guards redirect to.
const (
	SignInPath = "/login"
	HomePath   = "/"
)

// RouteGuard protects authenticated-only routes. Anonymous visitors are sent
// to the sign-in entry point carrying where they came from and why.
func RouteGuard(state State, from string) Decision {
	switch state.Status {
	case StatusAuthenticated:
		return Decision{Action: ActionRender}
	case StatusAnonymous:
		return Decision{
			Action: ActionRedirect,
			Target: SignInPath,
			From:   from,
			Reason: "You must be logged in to view this page.",
		}
	default:
		return Decision{Action: ActionWait}
	}
}

// GuestGuard protects guest-only routes (sign-in, registration). Logged-in
// users are bounced home with the history entry replaced so they cannot
// navigate back onto the guest page.
func GuestGuard(state State) Decision {
	switch state.Status {
	case StatusAnonymous:
		return Decision{Action: ActionRender}
	case StatusAuthenticated:
		return Decision{
			Action:         ActionRedirect,
			Target:         HomePath,
			ReplaceHistory: true,
		}
	default:
		return Decision{Action: ActionWait}
	}
}
