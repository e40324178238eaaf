package identity

import "net/http"

type GateState string

const (
	GateChecking GateState = "checking"
	GateAdmitted GateState = "admitted"
	GateDenied   GateState = "denied"
)

type DenyReason string

const (
	DenyUnauthenticated DenyReason = "unauthenticated"
	DenyForbidden       DenyReason = "forbidden"
)

type Decision struct {
	State    GateState  `json:"state"`
	Reason   DenyReason `json:"reason,omitempty"`
	Identity *Identity  `json:"identity,omitempty"`
}

// Admit runs the admin gate for a resolved identity. Only role admin is admitted.
func Admit(id *Identity) Decision {
	switch {
	case id == nil:
		return Decision{State: GateDenied, Reason: DenyUnauthenticated}
	case !id.IsAdmin():
		return Decision{State: GateDenied, Reason: DenyForbidden, Identity: id}
	default:
		return Decision{State: GateAdmitted, Identity: id}
	}
}

func (d Decision) Admitted() bool {
	return d.State == GateAdmitted
}

func (d Decision) HTTPStatus() int {
	switch {
	case d.State == GateAdmitted:
		return http.StatusOK
	case d.Reason == DenyUnauthenticated:
		return http.StatusUnauthorized
	case d.Reason == DenyForbidden:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}
