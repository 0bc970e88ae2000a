package api

import "fmt"

// Kind discriminates the error taxonomy of the access layer. Callers
// switch on it instead of inspecting ad hoc fields.
type Kind int

const (
	// KindAuthExpired means the session could not be refreshed; the
	// caller should treat the session as terminated.
	KindAuthExpired Kind = iota + 1
	// KindClient covers 4xx responses carrying a server message.
	KindClient
	// KindServer covers 5xx responses.
	KindServer
	// KindNetwork covers transport failures (DNS, refused connections);
	// no transport detail leaks to the caller.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth_expired"
	case KindClient:
		return "client_error"
	case KindServer:
		return "server_error"
	case KindNetwork:
		return "network_error"
	}
	return "unknown"
}

// genericMessage is shown for failures whose detail must not leak.
const genericMessage = "Something went wrong"

type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}
