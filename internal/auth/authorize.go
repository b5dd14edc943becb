package auth

import "strings"

// Authorize allows the claims when required is empty or the claims' role
// is among the required roles.
func Authorize(claims *Claims, required ...Role) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if len(required) == 0 {
		return nil
	}
	for _, role := range required {
		if claims.RoleName == role {
			return nil
		}
	}
	return ErrForbidden
}

// OwnerOrAdmin is the single ownership policy used system-wide: a resource
// may be read or mutated by its owner or by any administrator. Every
// collaborator applies this function rather than re-deriving the rule.
func OwnerOrAdmin(claims *Claims, ownerID string) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if claims.IsAdministrator() {
		return nil
	}
	if strings.TrimSpace(ownerID) != "" && claims.UserID() == ownerID {
		return nil
	}
	return ErrForbidden
}
