package models

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrConflict             = errors.New("resource already exists or conflict state")
	ErrInvalidEnum          = errors.New("invalid value")
	ErrCommentRequired      = errors.New("comment is required")
	ErrInvalidInviteCode    = errors.New("invalid invite code")
	ErrInviteNotFound       = errors.New("no pending invite found for your email")
	ErrInviteExpired        = errors.New("invite has expired")
	ErrAlreadyMember        = errors.New("user is already a member of this team")
	ErrNotTeamMember        = errors.New("user is not a member of the project team")
	ErrLeaderRemoval        = errors.New("cannot remove team leader")
	ErrActivityLogImmutable = errors.New("activity log entries are append-only")
)

// FieldError is a validation failure tied to one input field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
