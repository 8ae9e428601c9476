package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/anonto42/tracle/internal/auth"
	"github.com/anonto42/tracle/internal/forms"
	"github.com/anonto42/tracle/internal/mailer"
	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/repositories"
	"github.com/anonto42/tracle/internal/tokens"
	"github.com/anonto42/tracle/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	// ErrInvalidCredentials is shown for any failed sign-in.
	ErrInvalidCredentials = "Invalid email or password."
	// ErrEmailNotConfirmed is shown once the password matched an unconfirmed account.
	ErrEmailNotConfirmed = "Please confirm your email address before signing in."

	activationSubject = "Activate your TRACLE Account!"
	resetSubject      = "Password reset on TRACLE"
)

// AuthConfig carries the collaborators of AuthHandler.
type AuthConfig struct {
	Users      repositories.UserRepository
	Channels   repositories.ChannelRepository
	Sessions   *auth.Sessions
	Activation *tokens.Generator
	Reset      *tokens.Generator
	Mailer     mailer.Mailer
	Emails     EmailRenderer
	Firebase   firebase.IDTokenVerifier // nil disables Firebase sign-in
	Domain     string
	Log        logrus.FieldLogger
}

// AuthHandler handles account creation, activation, sign-in and password reset
type AuthHandler struct {
	userRepository    repositories.UserRepository
	channelRepository repositories.ChannelRepository
	sessions          *auth.Sessions
	activation        *tokens.Generator
	reset             *tokens.Generator
	mailer            mailer.Mailer
	emails            EmailRenderer
	firebaseAuth      firebase.IDTokenVerifier
	domain            string
	log               logrus.FieldLogger
	now               func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(cfg AuthConfig) *AuthHandler {
	return &AuthHandler{
		userRepository:    cfg.Users,
		channelRepository: cfg.Channels,
		sessions:          cfg.Sessions,
		activation:        cfg.Activation,
		reset:             cfg.Reset,
		mailer:            cfg.Mailer,
		emails:            cfg.Emails,
		firebaseAuth:      cfg.Firebase,
		domain:            cfg.Domain,
		log:               cfg.Log,
		now:               time.Now,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(e *echo.Echo) {
	e.GET("/signup", h.SignupPage)
	e.POST("/signup", h.Signup)
	e.GET("/activate/:key/:token", h.Activate)
	e.GET("/signin", h.SigninPage)
	e.POST("/signin", h.Signin)
	if h.firebaseAuth != nil {
		e.POST("/signin/firebase", h.FirebaseSignin)
	}
	e.GET("/signout", h.Signout)
	e.GET("/forgot-password", h.ForgotPasswordPage)
	e.POST("/forgot-password", h.ForgotPassword)
	e.GET("/reset/:key/:token", h.ResetPasswordPage)
	e.POST("/reset/:key/:token", h.ResetPassword)
}

func (h *AuthHandler) SignupPage(c echo.Context) error {
	return c.Render(http.StatusOK, "signup.html", echo.Map{"form": &forms.SignupForm{}})
}

// Signup creates an unconfirmed user and channel and mails the activation link.
func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	form := &forms.SignupForm{}
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	ok, err := form.IsValid(ctx, h.userRepository, h.channelRepository)
	if err != nil {
		return internalError(err)
	}
	if !ok {
		return c.Render(http.StatusOK, "signup.html", echo.Map{"form": form})
	}

	user, _, err := form.Save(ctx, h.userRepository)
	if err != nil {
		return internalError(err)
	}
	if err := h.sendUserEmail(ctx, user, h.activation, "email_confirm_account.html", activationSubject); err != nil {
		return internalError(err)
	}
	h.log.WithField("user_id", user.ID).Info("user signed up")
	return c.Render(http.StatusOK, "verification_sent.html", echo.Map{})
}

func (h *AuthHandler) sendUserEmail(ctx context.Context, user *models.User, gen *tokens.Generator, template, subject string) error {
	token, err := gen.MakeToken(user)
	if err != nil {
		return err
	}
	body, err := h.emails.RenderEmail(template, map[string]interface{}{
		"user":   user,
		"email":  user.Email,
		"domain": h.domain,
		"uid":    tokens.EncodeUID(user.ID),
		"token":  token,
	})
	if err != nil {
		return err
	}
	return h.mailer.Send(ctx, mailer.Message{To: user.Email, Subject: subject, Body: body})
}

// userFromKey resolves the base64url user key of an emailed link. A missing or
// malformed key yields nil without error.
func (h *AuthHandler) userFromKey(ctx context.Context, key string) (*models.User, error) {
	id, err := tokens.DecodeUID(key)
	if err != nil {
		return nil, nil
	}
	user, err := h.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Activate confirms the email of the user named by key when token is valid.
func (h *AuthHandler) Activate(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.userFromKey(ctx, c.Param("key"))
	if err != nil {
		return internalError(err)
	}

	if user == nil || !h.activation.CheckToken(user, c.Param("token")) {
		return c.Render(http.StatusOK, "account_activation_invalid.html", echo.Map{})
	}

	if err := h.userRepository.ConfirmEmail(ctx, user.ID); err != nil {
		return internalError(err)
	}
	h.log.WithField("user_id", user.ID).Info("account activated")
	return c.Redirect(http.StatusFound, "/signin")
}

func (h *AuthHandler) signinContext(form *forms.SigninForm, redirectTo string) echo.Map {
	return echo.Map{
		"form":             form,
		"redirect_to":      safeRedirect(redirectTo, ""),
		"firebase_enabled": h.firebaseAuth != nil,
	}
}

func (h *AuthHandler) SigninPage(c echo.Context) error {
	return c.Render(http.StatusOK, "signin.html", h.signinContext(&forms.SigninForm{}, c.QueryParam("redirect_to")))
}

// Signin authenticates email and password and starts a session.
func (h *AuthHandler) Signin(c echo.Context) error {
	ctx := c.Request().Context()
	form := &forms.SigninForm{}
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	redirectTo := c.FormValue("redirect_to")

	if !form.IsValid() {
		return c.Render(http.StatusOK, "signin.html", h.signinContext(form, redirectTo))
	}

	user, err := h.userRepository.GetUserByEmail(ctx, form.Email)
	if err != nil && !repositories.IsNotFound(err) {
		return internalError(err)
	}
	if user == nil || !auth.CheckPassword(user.Password, form.Password) {
		form.AddError(ErrInvalidCredentials)
		return c.Render(http.StatusOK, "signin.html", h.signinContext(form, redirectTo))
	}
	if !user.EmailConfirmed {
		form.AddError(ErrEmailNotConfirmed)
		return c.Render(http.StatusOK, "signin.html", h.signinContext(form, redirectTo))
	}

	if err := h.login(c, user); err != nil {
		return internalError(err)
	}
	return c.Redirect(http.StatusFound, safeRedirect(redirectTo, "/"))
}

// login stamps last_login on the user and their channel and sets the session cookie.
func (h *AuthHandler) login(c echo.Context, user *models.User) error {
	ctx := c.Request().Context()
	now := h.now()

	user.UpdateLastLogin(now)
	if err := h.userRepository.UpdateLastLogin(ctx, user.ID, *user.LastLogin); err != nil {
		return err
	}
	channel, err := h.channelRepository.GetChannelByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	channel.UpdateLastLogin(now)
	if err := h.channelRepository.UpdateLastLogin(ctx, channel.ID, *channel.LastLogin); err != nil {
		return err
	}
	if err := h.sessions.Login(c, user); err != nil {
		return err
	}
	h.log.WithField("user_id", user.ID).Info("user signed in")
	return nil
}

// FirebaseSignin verifies a Firebase ID token, provisioning the user and
// channel on first sight, and starts a session.
func (h *AuthHandler) FirebaseSignin(c echo.Context) error {
	ctx := c.Request().Context()
	idToken := strings.TrimSpace(c.FormValue("id_token"))
	if idToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing ID token")
	}

	token, err := h.firebaseAuth.VerifyIDToken(ctx, idToken)
	if err != nil {
		h.log.WithError(err).Warn("firebase token rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	claims := firebase.ClaimsFromToken(token)

	user, err := h.firebaseUser(ctx, claims)
	if err != nil {
		return internalError(err)
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusForbidden, "A verified email address is required")
	}

	if err := h.login(c, user); err != nil {
		return internalError(err)
	}
	return c.Redirect(http.StatusFound, safeRedirect(c.FormValue("redirect_to"), "/"))
}

// firebaseUser finds the user of claims by Firebase UID, then by verified
// email, and creates one otherwise. It returns nil when the token carries no
// verified email and no user is linked yet.
func (h *AuthHandler) firebaseUser(ctx context.Context, claims firebase.Claims) (*models.User, error) {
	user, err := h.userRepository.GetUserByFirebaseUID(ctx, claims.UID)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, err
	}
	if claims.Email == "" || !claims.EmailVerified {
		return nil, nil
	}

	user, err = h.userRepository.GetUserByEmail(ctx, forms.NormalizeEmail(claims.Email))
	switch {
	case err == nil:
		uid := claims.UID
		user.FirebaseUID = &uid
		user.EmailConfirmed = true
		if err := h.userRepository.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	case !repositories.IsNotFound(err):
		return nil, err
	}

	name, err := h.freeChannelName(ctx, claims.Email)
	if err != nil {
		return nil, err
	}
	uid := claims.UID
	user = &models.User{Email: forms.NormalizeEmail(claims.Email), EmailConfirmed: true, FirebaseUID: &uid}
	if err := h.userRepository.CreateUserWithChannel(ctx, user, &models.Channel{Name: name}); err != nil {
		return nil, err
	}
	h.log.WithField("user_id", user.ID).Info("user created from firebase sign-in")
	return user, nil
}

var channelNameStrip = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// freeChannelName derives an unused channel name from the local part of email.
func (h *AuthHandler) freeChannelName(ctx context.Context, email string) (string, error) {
	base := email
	if at := strings.Index(base, "@"); at >= 0 {
		base = base[:at]
	}
	base = channelNameStrip.ReplaceAllString(base, "_")
	if len(base) > 40 {
		base = base[:40]
	}
	if len(base) < 3 {
		base = "user_" + base
	}

	name := base
	for i := 2; i < 1000; i++ {
		taken, err := h.channelRepository.IsNameTaken(ctx, name, 0)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return "", fmt.Errorf("no free channel name for %q", base)
}

func (h *AuthHandler) Signout(c echo.Context) error {
	h.sessions.Logout(c)
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ForgotPasswordPage(c echo.Context) error {
	return c.Render(http.StatusOK, "forgot_password.html", echo.Map{"form": &forms.ResetPasswordForm{}})
}

// ForgotPassword mails a reset link when a confirmed account uses the address.
// The response never reveals whether it does.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	form := &forms.ResetPasswordForm{}
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if !form.IsValid() {
		return c.Render(http.StatusOK, "forgot_password.html", echo.Map{"form": form})
	}

	user, err := h.userRepository.GetUserByEmail(ctx, form.Email)
	switch {
	case err == nil:
		if user.EmailConfirmed && user.Password != "" {
			if err := h.sendUserEmail(ctx, user, h.reset, "forgot_password_email.html", resetSubject); err != nil {
				return internalError(err)
			}
			h.log.WithField("user_id", user.ID).Info("password reset mailed")
		}
	case !repositories.IsNotFound(err):
		return internalError(err)
	}
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) resetUser(c echo.Context) (*models.User, error) {
	user, err := h.userFromKey(c.Request().Context(), c.Param("key"))
	if err != nil || user == nil {
		return nil, err
	}
	if !h.reset.CheckToken(user, c.Param("token")) {
		return nil, nil
	}
	return user, nil
}

func (h *AuthHandler) ResetPasswordPage(c echo.Context) error {
	user, err := h.resetUser(c)
	if err != nil {
		return internalError(err)
	}
	return c.Render(http.StatusOK, "forgot_password_confirm.html", echo.Map{
		"validlink": user != nil,
		"form":      &forms.SetPasswordForm{},
	})
}

// ResetPassword sets a new password when the emailed link is still valid.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	user, err := h.resetUser(c)
	if err != nil {
		return internalError(err)
	}
	form := &forms.SetPasswordForm{}
	if user == nil {
		return c.Render(http.StatusOK, "forgot_password_confirm.html", echo.Map{"validlink": false, "form": form})
	}

	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if !form.IsValid() {
		return c.Render(http.StatusOK, "forgot_password_confirm.html", echo.Map{"validlink": true, "form": form})
	}
	if err := form.Save(c.Request().Context(), h.userRepository, user); err != nil {
		return internalError(err)
	}
	h.log.WithField("user_id", user.ID).Info("password reset")
	return c.Redirect(http.StatusFound, "/signin")
}
