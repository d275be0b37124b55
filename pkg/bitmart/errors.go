package bitmart

import "errors"

var (
	// ErrNoPairs is returned when a subscribe call is made with an empty or
	// absent trading-pair list. It is raised before any network activity.
	ErrNoPairs = errors.New("must provide pairs to subscribe to")

	// ErrMissingCredentials is returned when an authenticated subscription is
	// attempted without a configured API key, secret, and API name.
	ErrMissingCredentials = errors.New("must provide credentials for authenticated route")
)
