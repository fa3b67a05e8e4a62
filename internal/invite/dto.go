package invite

import (
	errors "github.com/replybase/replybase/internal"
	"github.com/replybase/replybase/internal/authz"
	"github.com/replybase/replybase/internal/core/common/validation"
)

// CreateInviteDTO is the transport shape for invite creation. WorkspaceID is
// optional and server-inferred from the caller's own resolution when omitted;
// a caller-supplied value is only ever cross-checked, never trusted.
type CreateInviteDTO struct {
	Email       string `json:"email"`
	TargetRole  string `json:"target_role"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

func (d CreateInviteDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("email", d.Email).Required().Email()
	validator.Field("target_role", d.TargetRole).Required().
		OneOf([]string{string(authz.RoleEmployee), string(authz.RolePlatformStaff)}, errors.ErrCodeInvalidRole)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// AcceptInviteDTO arrives on a public, unauthenticated link. Email must match
// the invite's stored email; Password becomes the credential of a newly
// created account and is ignored for an existing one.
type AcceptInviteDTO struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

func (d AcceptInviteDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("token", d.Token).Required()
	validator.Field("email", d.Email).Required().Email()
	validator.Field("password", d.Password).Required().MinLength(8).MaxLength(72)
	validator.Field("name", d.Name).MaxLength(200)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
