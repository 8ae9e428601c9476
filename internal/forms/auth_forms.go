package forms

import (
	"context"
	"strings"

	"github.com/anonto42/tracle/internal/auth"
	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/repositories"
)

// SignupForm registers a user together with their channel.
type SignupForm struct {
	Email       string `form:"email" validate:"required,max=254,email,emailaddr"`
	ChannelName string `form:"channel_name" validate:"required,min=3,max=50,channelname"`
	Password1   string `form:"password1" validate:"required,min=8,notnumeric"`
	Password2   string `form:"password2" validate:"required"`

	errors Errors
}

func (f *SignupForm) Errors() Errors { return f.errors }

// IsValid validates the input, including uniqueness of email and channel name.
// The returned error is reserved for storage failures.
func (f *SignupForm) IsValid(ctx context.Context, users repositories.UserRepository, channels repositories.ChannelRepository) (bool, error) {
	f.Email = NormalizeEmail(f.Email)
	f.ChannelName = strings.TrimSpace(f.ChannelName)
	f.errors = validateStruct(f)
	checkPasswords(f.errors, "password1", f.Password1, "password2", f.Password2)

	if len(f.errors.Get("email")) == 0 {
		taken, err := users.IsEmailTaken(ctx, f.Email)
		if err != nil {
			return false, err
		}
		if taken {
			f.errors.Add("email", "A user with that email already exists.")
		}
	}
	if len(f.errors.Get("channel_name")) == 0 {
		taken, err := channels.IsNameTaken(ctx, f.ChannelName, 0)
		if err != nil {
			return false, err
		}
		if taken {
			f.errors.Add("channel_name", "This channel name is already taken.")
		}
	}
	return !f.errors.Any(), nil
}

// Save creates the unconfirmed user and its channel.
func (f *SignupForm) Save(ctx context.Context, users repositories.UserRepository) (*models.User, *models.Channel, error) {
	hash, err := auth.HashPassword(f.Password1)
	if err != nil {
		return nil, nil, err
	}
	user := &models.User{Email: f.Email, Password: hash}
	channel := &models.Channel{Name: f.ChannelName}
	if err := users.CreateUserWithChannel(ctx, user, channel); err != nil {
		return nil, nil, err
	}
	return user, channel, nil
}

// SigninForm only checks the shape of the credentials.
type SigninForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`

	errors Errors
}

func (f *SigninForm) Errors() Errors { return f.errors }

func (f *SigninForm) IsValid() bool {
	f.Email = NormalizeEmail(f.Email)
	f.errors = validateStruct(f)
	return !f.errors.Any()
}

// AddError records a non-field error, such as failed authentication.
func (f *SigninForm) AddError(msg string) {
	if f.errors == nil {
		f.errors = Errors{}
	}
	f.errors.Add(NonFieldErrors, msg)
}

// ResetPasswordForm asks for the address a reset link is mailed to.
type ResetPasswordForm struct {
	Email string `form:"email" validate:"required,max=254,email"`

	errors Errors
}

func (f *ResetPasswordForm) Errors() Errors { return f.errors }

func (f *ResetPasswordForm) IsValid() bool {
	f.Email = NormalizeEmail(f.Email)
	f.errors = validateStruct(f)
	return !f.errors.Any()
}

// SetPasswordForm chooses a new password.
type SetPasswordForm struct {
	NewPassword1 string `form:"new_password1" validate:"required,min=8,notnumeric"`
	NewPassword2 string `form:"new_password2" validate:"required"`

	errors Errors
}

func (f *SetPasswordForm) Errors() Errors { return f.errors }

func (f *SetPasswordForm) IsValid() bool {
	f.errors = validateStruct(f)
	checkPasswords(f.errors, "new_password1", f.NewPassword1, "new_password2", f.NewPassword2)
	return !f.errors.Any()
}

// Save stores the new password hash for user.
func (f *SetPasswordForm) Save(ctx context.Context, users repositories.UserRepository, user *models.User) error {
	hash, err := auth.HashPassword(f.NewPassword1)
	if err != nil {
		return err
	}
	if err := users.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}
	user.Password = hash
	return nil
}
