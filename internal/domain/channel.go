package domain

type ChannelKind int

const (
	ChannelKindOther ChannelKind = iota
	ChannelKindText
	ChannelKindCategory
)

type Channel struct {
	ID       string
	GuildID  string
	ParentID string
	Name     string
	Kind     ChannelKind
	Position int

	// IsCommandChannel lo calcula el adapter a partir del marcador en el topic.
	IsCommandChannel bool
}

type PrincipalType int

const (
	PrincipalRole PrincipalType = iota
	PrincipalMember
)

func (p PrincipalType) String() string {
	if p == PrincipalMember {
		return "member"
	}
	return "role"
}

// ViewAccess es el estado de ViewChannel dentro de un overwrite.
type ViewAccess int

const (
	ViewUnset ViewAccess = iota
	ViewAllow
	ViewDeny
)

func (v ViewAccess) String() string {
	switch v {
	case ViewAllow:
		return "allow"
	case ViewDeny:
		return "deny"
	default:
		return "unset"
	}
}

// Overwrite es un permiso por canal y por principal (usuario o rol).
type Overwrite struct {
	PrincipalID string
	Type        PrincipalType
	View        ViewAccess
}
