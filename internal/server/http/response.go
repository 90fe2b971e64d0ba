package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
	"github.com/gin-gonic/gin"
)

// apiResponse is the envelope of every JSON response.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func writeOK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, apiResponse{StatusCode: status, Data: data, Message: message, Success: true})
}

// errorStatus maps service errors onto an HTTP status and a client-facing
// message. Unknown account and wrong password are deliberately the same.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrAccountNotFound), errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, common.ErrMissingToken):
		return http.StatusUnauthorized, "unauthorized request"
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, "invalid access token"
	case errors.Is(err, common.ErrInvalidRefreshToken), errors.Is(err, common.ErrRefreshTokenReused):
		return http.StatusUnauthorized, "refresh token is expired or used"
	case errors.Is(err, common.ErrAvatarRequired):
		return http.StatusBadRequest, common.ErrAvatarRequired.Error()
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "username or email already exists"
	case errors.Is(err, common.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too many login attempts"
	case errors.Is(err, common.ErrStoreUnavailable), errors.Is(err, common.ErrMediaUpload):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(c *gin.Context, err error) {
	status, message := errorStatus(err)

	var retry *services.RetryAfterError
	if errors.As(err, &retry) {
		seconds := int(math.Ceil(retry.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, apiResponse{StatusCode: status, Data: nil, Message: message, Success: false})
}
