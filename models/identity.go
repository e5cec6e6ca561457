package models

// UserKind distinguishes the two kinds of authenticated callers.
type UserKind string

const (
	KindPatient  UserKind = "PATIENT"
	KindProvider UserKind = "PROVIDER"
)

// Caller is the resolved identity behind a request. It is closed: the only
// implementations are PatientCaller and ProviderCaller.
type Caller interface {
	CallerID() string
	Kind() UserKind
	caller()
}

type PatientCaller struct {
	ID string
}

func (p PatientCaller) CallerID() string { return p.ID }
func (PatientCaller) Kind() UserKind     { return KindPatient }
func (PatientCaller) caller()            {}

type ProviderCaller struct {
	ID        string
	RoleTitle RoleTitle
}

func (p ProviderCaller) CallerID() string { return p.ID }
func (ProviderCaller) Kind() UserKind     { return KindProvider }
func (ProviderCaller) caller()            {}

// NewCaller builds the variant for kind, or returns nil for an unknown kind.
func NewCaller(kind UserKind, id string, role RoleTitle) Caller {
	switch kind {
	case KindPatient:
		return PatientCaller{ID: id}
	case KindProvider:
		return ProviderCaller{ID: id, RoleTitle: role}
	default:
		return nil
	}
}
