package http

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
	"github.com/gin-gonic/gin"
)

type sessionService interface {
	Login(ctx context.Context, identifier, password string) (*services.LoginResult, error)
	Refresh(ctx context.Context, presented string) (*services.TokenPair, error)
	Logout(ctx context.Context, accountID string) error
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
}

type accountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicAccountView, error)
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.PublicAccountView, error)
}

type handler struct {
	sessions sessionService
	accounts accountService
	cookies  cookiePolicy
	ping     func(ctx context.Context) error
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type loginResponse struct {
	User         *models.PublicAccountView `json:"user"`
	AccessToken  string                    `json:"accessToken"`
	RefreshToken string                    `json:"refreshToken"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func writeBadRequest(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, apiResponse{
			StatusCode: http.StatusRequestEntityTooLarge, Message: "request body too large",
		})
		return
	}
	writeError(c, fmt.Errorf("%w: %s", common.ErrorValidation, "invalid request body"))
}

func currentAccount(c *gin.Context) *models.PublicAccountView {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	view, _ := v.(*models.PublicAccountView)
	return view
}

func formFile(c *gin.Context, field string) (*media.File, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return openFormFile(fh)
}

func openFormFile(fh *multipart.FileHeader) (*media.File, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &media.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func (h *handler) register(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeBadRequest(c, err)
		return
	}

	avatar, closeAvatar, err := formFile(c, "avatar")
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	defer closeAvatar()

	cover, closeCover, err := formFile(c, "coverImage")
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	defer closeCover()

	view, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
		Username:   c.PostForm("username"),
		Email:      c.PostForm("email"),
		FullName:   c.PostForm("fullname"),
		Password:   c.PostForm("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeOK(c, http.StatusCreated, view, "User registered successfully")
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	res, err := h.sessions.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.cookies.setTokens(c.Writer, c.Request, &res.Tokens)
	writeOK(c, http.StatusOK, loginResponse{
		User:         res.Account,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}, "User logged in successfully")
}

func (h *handler) refresh(c *gin.Context) {
	presented, _ := c.Cookie(common.RefreshTokenCookieName)
	if presented == "" && c.Request.ContentLength != 0 {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), presented)
	if err != nil {
		writeError(c, err)
		return
	}

	h.cookies.setTokens(c.Writer, c.Request, pair)
	writeOK(c, http.StatusOK, tokensResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}

func (h *handler) logout(c *gin.Context) {
	account := currentAccount(c)
	if account == nil {
		writeError(c, common.ErrUnauthenticated)
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), account.ID); err != nil {
		writeError(c, err)
		return
	}

	h.cookies.clearTokens(c.Writer, c.Request)
	writeOK(c, http.StatusOK, gin.H{}, "User logged out")
}

func (h *handler) changePassword(c *gin.Context) {
	account := currentAccount(c)
	if account == nil {
		writeError(c, common.ErrUnauthenticated)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	if err := h.sessions.ChangePassword(c.Request.Context(), account.ID, req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}

	writeOK(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (h *handler) currentUser(c *gin.Context) {
	account := currentAccount(c)
	if account == nil {
		writeError(c, common.ErrUnauthenticated)
		return
	}
	writeOK(c, http.StatusOK, account, "current user fetched successfully")
}

func (h *handler) health(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
	}
	writeOK(c, http.StatusOK, gin.H{"status": "ok"}, "")
}
