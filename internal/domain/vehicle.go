package domain

// Vehicle is a snapshot of one bus as reported by a transit provider.
// RouteName may be empty when the provider does not assign the bus to a route.
// Identity across polls is Name equality only.
type Vehicle struct {
	ID        string
	Name      string
	RouteName string
	Position  Coordinates
}

// Stop is a fixed boarding location of a transit system.
type Stop struct {
	ID       string
	Name     string
	Position Coordinates
}
