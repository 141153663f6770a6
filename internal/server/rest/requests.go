package rest

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/server/models"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

var errInvalidBody = common.Validation("INVALID_REQUEST_BODY")

// bind decodes the JSON body into req and runs its validation rules.
func bind(c *gin.Context, req validation.Validatable) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return common.Wrap(err, common.KindValidation, errInvalidBody.Code)
	}
	return req.Validate()
}

// validID accepts only the canonical 36-character uuid form.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Shared field rules. Messages are the machine-readable codes returned to
// clients in the errors map.
var (
	nameRules = []validation.Rule{
		validation.Required.Error("NAME_REQUIRED"),
		validation.RuneLength(2, 50).Error("NAME_LENGTH_INVALID"),
	}
	emailRules = []validation.Rule{
		validation.Required.Error("EMAIL_INVALID"),
		is.Email.Error("EMAIL_INVALID"),
	}
	// bcrypt ignores input past 72 bytes.
	passwordRules = []validation.Rule{
		validation.Required.Error("PASSWORD_REQUIRED"),
		validation.Length(8, 0).Error("PASSWORD_TOO_SHORT"),
		validation.Length(0, 72).Error("PASSWORD_TOO_LONG"),
	}
	tokenRules = []validation.Rule{
		validation.Required.Error("TOKEN_REQUIRED"),
	}
)

func matches(other *string) validation.Rule {
	return validation.By(func(value interface{}) error {
		if s, _ := value.(string); s != *other {
			return errors.New("PASSWORD_MISMATCH")
		}
		return nil
	})
}

type createAccountRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (r *createAccountRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = common.NormalizeEmail(r.Email)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, nameRules...),
		validation.Field(&r.Email, emailRules...),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.PasswordConfirmation, matches(&r.Password)),
	)
}

type tokenRequest struct {
	Token string `json:"token"`
}

func (r *tokenRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	return validation.ValidateStruct(r, validation.Field(&r.Token, tokenRules...))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) Validate() error {
	r.Email = common.NormalizeEmail(r.Email)
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, emailRules...),
		validation.Field(&r.Password, passwordRules...),
	)
}

type emailRequest struct {
	Email string `json:"email"`
}

func (r *emailRequest) Validate() error {
	r.Email = common.NormalizeEmail(r.Email)
	return validation.ValidateStruct(r, validation.Field(&r.Email, emailRules...))
}

type newPasswordRequest struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (r *newPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.PasswordConfirmation, matches(&r.Password)),
	)
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r *profileRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = common.NormalizeEmail(r.Email)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, nameRules...),
		validation.Field(&r.Email, emailRules...),
	)
}

type changePasswordRequest struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (r *changePasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CurrentPassword, validation.Required.Error("PASSWORD_REQUIRED")),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.PasswordConfirmation, matches(&r.Password)),
	)
}

type projectRequest struct {
	ProjectName string `json:"projectName"`
	ClientName  string `json:"clientName"`
	Description string `json:"description"`
}

func (r *projectRequest) Validate() error {
	r.ProjectName = strings.TrimSpace(r.ProjectName)
	r.ClientName = strings.TrimSpace(r.ClientName)
	r.Description = strings.TrimSpace(r.Description)
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectName, validation.Required.Error("PROJECT_NAME_REQUIRED")),
		validation.Field(&r.ClientName, validation.Required.Error("CLIENT_NAME_REQUIRED")),
		validation.Field(&r.Description, validation.Required.Error("DESCRIPTION_REQUIRED")),
	)
}

type taskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *taskRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required.Error("TASK_NAME_REQUIRED")),
		validation.Field(&r.Description, validation.Required.Error("TASK_DESCRIPTION_REQUIRED")),
	)
}

type statusRequest struct {
	Status models.TaskStatus `json:"status"`
}

func (r *statusRequest) Validate() error {
	allowed := make([]interface{}, len(models.TaskStatuses))
	for i, s := range models.TaskStatuses {
		allowed[i] = s
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Status,
			validation.Required.Error("STATUS_TASK_REQUIRED"),
			validation.In(allowed...).Error(common.ErrInvalidTaskStatus.Code),
		),
	)
}

type noteRequest struct {
	Content string `json:"content"`
}

func (r *noteRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	return validation.ValidateStruct(r, validation.Field(&r.Content, validation.Required.Error("NOTE_CONTENT_REQUIRED")))
}

type memberRequest struct {
	ID string `json:"id"`
}

func (r *memberRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID,
			validation.Required.Error(common.ErrInvalidID.Code),
			validation.By(func(value interface{}) error {
				if s, _ := value.(string); !validID(s) {
					return errors.New(common.ErrInvalidID.Code)
				}
				return nil
			}),
		),
	)
}
