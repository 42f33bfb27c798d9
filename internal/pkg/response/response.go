package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Admin API error codes
const (
	CodeSuccess          = 0
	CodeParamError       = 1000
	CodeAuthFailed       = 1001
	CodeResourceNotFound = 1003
	CodeConflict         = 1005
	CodeServerError      = 5000
)

var codeMessages = map[int]string{
	CodeSuccess:          "success",
	CodeParamError:       "invalid parameters",
	CodeAuthFailed:       "authentication failed",
	CodeResourceNotFound: "resource not found",
	CodeConflict:         "status change not allowed",
	CodeServerError:      "internal server error",
}

var codeStatus = map[int]int{
	CodeSuccess:          http.StatusOK,
	CodeParamError:       http.StatusBadRequest,
	CodeAuthFailed:       http.StatusUnauthorized,
	CodeResourceNotFound: http.StatusNotFound,
	CodeConflict:         http.StatusConflict,
	CodeServerError:      http.StatusInternalServerError,
}

// Response is the admin API envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type PageData struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// IntakeError is the public intake error body. Details is omitted for
// server-side failures.
type IntakeError struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func SuccessPage(c *gin.Context, total int64, page, pageSize int, items interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data: PageData{
			Total:    total,
			Page:     page,
			PageSize: pageSize,
			Items:    items,
		},
	})
}

// Error writes the envelope with the HTTP status mapped from code.
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeResourceNotFound, message)
}

func ConflictError(c *gin.Context, message string) {
	Error(c, CodeConflict, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

// IntakeFailure writes the public intake error body.
func IntakeFailure(c *gin.Context, status int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, IntakeError{
		Error:   message,
		Details: details,
	})
}
