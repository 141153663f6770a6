package rest

import (
	"net/http"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	user, err := s.accounts.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusCreated, "ACCOUNT_CREATED", gin.H{
		"user":  user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

func (s *Server) confirmAccount(c *gin.Context) {
	var req tokenRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}
	if err := s.accounts.ConfirmAccount(c.Request.Context(), req.Token); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "ACCOUNT_CONFIRMED", nil)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	user, pair, err := s.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.abort(c, err)
		return
	}

	s.cookies.SetSession(c.Writer, pair)
	respond(c, http.StatusCreated, "LOGIN_SUCCESS", user.Summary())
}

func (s *Server) requestConfirmationCode(c *gin.Context) {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}
	if err := s.accounts.RequestConfirmationCode(c.Request.Context(), req.Email); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "CONFIRMATION_CODE_SENT", nil)
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}
	if err := s.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "PASSWORD_RESET_SENT", nil)
}

func (s *Server) validateToken(c *gin.Context) {
	var req tokenRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}
	if err := s.accounts.ValidateResetToken(c.Request.Context(), req.Token); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "TOKEN_VALID", nil)
}

func (s *Server) updatePasswordWithToken(c *gin.Context) {
	var req newPasswordRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}
	if err := s.accounts.UpdatePasswordWithToken(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "PASSWORD_UPDATED", nil)
}

// refresh rotates the session. Any failure clears both cookies.
func (s *Server) refresh(c *gin.Context) {
	token, _ := c.Cookie(common.RefreshTokenCookieName)
	if token == "" {
		s.cookies.ClearSession(c.Writer)
		s.abort(c, common.ErrTokenRequired)
		return
	}

	user, pair, err := s.accounts.Refresh(c.Request.Context(), token)
	if err != nil {
		s.cookies.ClearSession(c.Writer)
		s.abort(c, err)
		return
	}

	s.cookies.SetSession(c.Writer, pair)
	respond(c, http.StatusOK, "TOKEN_REFRESHED", user.Summary())
}

func (s *Server) getUser(c *gin.Context) {
	respond(c, http.StatusOK, "USER_FETCHED", scopeOf(c).User.Summary())
}

func (s *Server) logout(c *gin.Context) {
	s.cookies.ClearSession(c.Writer)
	respond(c, http.StatusOK, "LOGOUT_SUCCESS", nil)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	user, err := s.accounts.UpdateProfile(c.Request.Context(), scopeOf(c).User.ID, req.Name, req.Email)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "PROFILE_UPDATED", user.Summary())
}

// updateCurrentPassword ends the session so the user signs in again with
// the new password.
func (s *Server) updateCurrentPassword(c *gin.Context) {
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	err := s.accounts.UpdateCurrentPassword(c.Request.Context(), scopeOf(c).User.ID, req.CurrentPassword, req.Password)
	if err != nil {
		s.abort(c, err)
		return
	}
	s.cookies.ClearSession(c.Writer)
	respond(c, http.StatusOK, "PASSWORD_UPDATED", nil)
}
