package workspace

import (
	"github.com/replybase/replybase/internal/core/common/validation"
)

type SignupDTO struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	WorkspaceName string `json:"workspace_name"`
}

func (d SignupDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("email", d.Email).Required().Email()
	validator.Field("password", d.Password).Required().MinLength(8).MaxLength(72)
	validator.Field("workspace_name", d.WorkspaceName).Required().MinLength(2).MaxLength(120)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type UpdateEmployeeDTO struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

func (d UpdateEmployeeDTO) Validate() error {
	validator := validation.NewValidator()

	if d.Name != nil {
		validator.Field("name", *d.Name).Required().MaxLength(200)
	}
	if d.Phone != nil {
		validator.Field("phone", *d.Phone).MaxLength(32)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
