package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skillswap-backend/internal/logger"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Reason    string `json:"reason,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type PaginatedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Pagination struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Pages   int  `json:"pages"`
	HasMore bool `json:"has_more"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

func Paginated(c *gin.Context, data interface{}, total, page, limit int) {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    data,
		Pagination: Pagination{
			Total:   total,
			Page:    page,
			Limit:   limit,
			Pages:   pages,
			HasMore: page < pages,
		},
	})
}

// Error отдаёт AppError как есть. Остальные ошибки логируются и маскируются.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Get().WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"code":   appErr.Code,
			}).WithError(err).Error("Request failed")
		}
		c.JSON(appErr.HTTPStatus, Response{
			Success: false,
			Error: &ErrorInfo{
				Code:      string(appErr.Code),
				Message:   appErr.Message,
				Reason:    appErr.Reason,
				Retryable: apperror.IsRetryable(appErr),
			},
		})
		return
	}

	logger.Get().WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).WithError(err).Error("Unhandled error")

	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeInternal),
			Message: "внутренняя ошибка сервера",
		},
	})
}

func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeBadRequest),
			Message: message,
		},
	})
}

func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeUnauthorized),
			Message: message,
		},
	})
}

func TooManyRequests(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      "RATE_LIMITED",
			Message:   message,
			Retryable: true,
		},
	})
}
