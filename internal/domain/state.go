package domain

type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticating
	StateAuthenticated
	StateFetching
	StateReady
	StateError
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

func (s SessionState) IsLoading() bool {
	return s == StateAuthenticating || s == StateFetching
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
