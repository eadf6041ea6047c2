package domain

import "fmt"

// Role é a capacidade exigida por uma operação
type Role int

const (
	RoleOwner Role = iota
	RoleCreatorOrOwner
	RoleVerifiedCurator
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleCreatorOrOwner:
		return "creator-or-owner"
	case RoleVerifiedCurator:
		return "verified-curator"
	default:
		return "unknown"
	}
}

// Grant descreve quem detém cada capacidade no contexto de uma operação.
// Todas as checagens de autorização passam por Require.
type Grant struct {
	Owner   Principal
	Creator Principal
	Curator bool
}

// Require falha com ErrUnauthorized se o caller não tiver o papel exigido
func (g Grant) Require(caller Principal, role Role) error {
	ok := false
	switch role {
	case RoleOwner:
		ok = g.Owner != "" && caller == g.Owner
	case RoleCreatorOrOwner:
		ok = (g.Owner != "" && caller == g.Owner) || (g.Creator != "" && caller == g.Creator)
	case RoleVerifiedCurator:
		ok = g.Curator
	}
	if caller == "" || !ok {
		return fmt.Errorf("%s required: %w", role, ErrUnauthorized)
	}
	return nil
}
