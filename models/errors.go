package models

import "errors"

// Greške domena - handleri ih mapiraju na HTTP statuse preko errors.Is.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInviteNotFound  = errors.New("invitation not found")
	ErrForbidden       = errors.New("access forbidden")

	ErrAlreadyMember     = errors.New("user is already a member of the project")
	ErrNotAMember        = errors.New("user is not a member of the project")
	ErrCannotRemoveOwner = errors.New("cannot remove the project owner")
	ErrInvalidRole       = errors.New("invalid role")

	ErrDuplicateInvite        = errors.New("a pending invitation already exists for this email")
	ErrInvalidOrExpiredInvite = errors.New("invitation is invalid or has expired")
	ErrEmailMismatch          = errors.New("invitation was issued for a different email")

	// ErrStorageUnavailable wraps transient driver failures; callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrOwnerConflict means the single-owner invariant broke. It should never
	// surface to a caller; if observed it is a bug.
	ErrOwnerConflict = errors.New("project owner invariant violated")
)
