package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"max=100"`
	LastName string `json:"lastName" binding:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type userResponse struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	LastName      string          `json:"lastName"`
	EmailVerified bool            `json:"emailVerified"`
	Authorities   []string        `json:"authorities"`
	Phones        []phoneResponse `json:"phones"`
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abort(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return false
	}
	return true
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		LastName: req.LastName,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful, please check your email to verify your account",
		"email":   user.Email,
	})
}

func (h *Handler) Verify(c *gin.Context) {
	user, err := h.auth.Verify(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified", "email": user.Email})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification email sent"})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setTokenCookie(c, common.AccessTokenCookieName, session.AccessToken)
	h.setTokenCookie(c, common.RefreshTokenCookieName, session.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "email": session.Principal.Identity})
}

func (h *Handler) Refresh(c *gin.Context) {
	principal, access, err := h.auth.Refresh(c.Request.Context(), tokenFromRequest(c, common.RefreshTokenCookieName))
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setTokenCookie(c, common.AccessTokenCookieName, access)
	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed", "email": principal.Identity})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), tokenFromRequest(c, common.RefreshTokenCookieName)); err != nil {
		h.writeError(c, err)
		return
	}

	h.clearTokenCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), c.Query("token"), req.Password); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

func (h *Handler) Me(c *gin.Context) {
	principal := principalFrom(c)

	user, err := h.auth.Me(c.Request.Context(), principal.Identity)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user, principal.Authorities))
}

func toUserResponse(u *models.User, authorities []string) userResponse {
	phones := make([]phoneResponse, 0, len(u.Phones))
	for _, p := range u.Phones {
		phones = append(phones, toPhoneResponse(p))
	}
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		LastName:      u.LastName,
		EmailVerified: u.EmailVerified,
		Authorities:   authorities,
		Phones:        phones,
	}
}
