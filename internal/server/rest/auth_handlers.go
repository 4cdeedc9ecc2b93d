package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/common"
	"github.com/dmitrijs2005/gophevents/internal/server/models"
	"github.com/dmitrijs2005/gophevents/internal/server/services"
)

const forgotPasswordMessage = "If an account exists with this email, a reset code has been sent"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type codeRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type profileRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	Name            string `json:"name"`
	Email           string `json:"email"`
}

type userResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
}

type loginResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, userResponse{Message: "User registered successfully", User: user.Public()})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, user, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, s.authCookie(token, int(s.cookieMaxAge().Seconds())))
	s.writeJSON(w, r, http.StatusOK, loginResponse{Token: token, User: user.Public()})
}

func (s *Server) verifyAccount(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.VerifyAccount(r.Context(), req.Email, req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, userResponse{Message: "Account verified successfully", User: user.Public()})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeMessage(w, r, http.StatusOK, forgotPasswordMessage)
}

func (s *Server) verifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.accounts.VerifyResetCode(r.Context(), req.Email, req.Code); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeMessage(w, r, http.StatusOK, "Reset code is valid")
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.accounts.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeMessage(w, r, http.StatusOK, "Password has been reset successfully")
}

func (s *Server) editProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrUnauthenticated)
		return
	}

	var req profileRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.EditProfile(r.Context(), userID, services.ProfileUpdate{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		Name:            req.Name,
		Email:           req.Email,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, userResponse{Message: "Profile updated successfully", User: user.Public()})
}

// logout clears the auth cookie. The token itself stays valid until it
// expires.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	c := s.authCookie("", -1)
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
	s.writeMessage(w, r, http.StatusOK, "Logged out successfully")
}

func (s *Server) authCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.opts.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (s *Server) cookieMaxAge() time.Duration {
	if s.opts.CookieMaxAge > 0 {
		return s.opts.CookieMaxAge
	}
	return common.AuthCookieMaxAge
}
