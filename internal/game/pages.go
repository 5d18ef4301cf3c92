package game

// Page identifies a screen of the client. The core never inspects navigation
// state beyond the page it is currently on.
type Page string

const (
	PageEntry           Page = "/"
	PageHostSetup       Page = "/host-setup"
	PageHostGame        Page = "/host-game"
	PageWaitingRoom     Page = "/waiting-room"
	PageParticipantGame Page = "/participant-game"
)

// Navigator is the side-effect-only navigation boundary.
type Navigator interface {
	NavigateTo(Page)
}

// TargetPage maps (role, status) to the page a restored or transitioning
// session belongs on. A finished game stays on the game page.
func TargetPage(role Role, status Status) Page {
	if role == RoleHost {
		if status == StatusWaiting {
			return PageHostSetup
		}
		return PageHostGame
	}
	if status == StatusWaiting {
		return PageWaitingRoom
	}
	return PageParticipantGame
}
