package session

// Route is where the app shell sends the user.
type Route string

const (
	RouteLoading Route = "loading"
	RouteWelcome Route = "welcome"
	RouteApp     Route = "app"
)

// Guard decides the route for a session state: nothing renders while loading,
// and a missing session always lands on the welcome screen.
func Guard(state State) Route {
	switch state {
	case StateSignedIn:
		return RouteApp
	case StateSignedOut:
		return RouteWelcome
	case StateLoading:
		return RouteLoading
	default:
		return RouteWelcome
	}
}
