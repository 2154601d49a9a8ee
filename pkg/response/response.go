package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
)

// Response represents a standard API response
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response. err, when set, is attached to the gin
// context for the access log and echoed in the body.
func Error(c *gin.Context, code int, message string, err error) {
	resp := Response{
		Code:    code,
		Message: message,
	}
	if err != nil {
		c.Error(err)
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(code, resp)
}

// FromError sends an error response whose status follows the error kind
func FromError(c *gin.Context, message string, err error) {
	Error(c, StatusOf(err), message, err)
}

// StatusOf maps an error kind to an HTTP status
func StatusOf(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.NotFound:
		return http.StatusNotFound
	case apperrors.InvalidParameter:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// NotFound sends a 404 not found response
func NotFound(c *gin.Context, message string, err error) {
	Error(c, http.StatusNotFound, message, err)
}

// InternalError sends a 500 internal server error response
func InternalError(c *gin.Context, message string, err error) {
	Error(c, http.StatusInternalServerError, message, err)
}
