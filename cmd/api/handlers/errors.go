package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"blog-system/cmd/api/dto"
	"blog-system/cmd/api/services"
	"blog-system/internal/logger"
)

const serverErrorMsg = "Server Error"

// writePostError 는 서비스 sentinel 을 상태 코드와 {"msg"} 응답으로 바꾼다.
// 매핑되지 않는 오류는 로그만 남기고 일반 메시지로 500 을 응답한다.
func writePostError(c *gin.Context, log logger.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
		c.JSON(http.StatusBadRequest, dto.MessageDTO{Msg: msg})
	case errors.Is(err, services.ErrTooManyFiles):
		c.JSON(http.StatusBadRequest, dto.MessageDTO{Msg: services.ErrTooManyFiles.Error()})
	case errors.Is(err, services.ErrNoFiles):
		c.JSON(http.StatusBadRequest, dto.MessageDTO{Msg: services.ErrNoFiles.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.MessageDTO{Msg: services.ErrNotFound.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, dto.MessageDTO{Msg: services.ErrUnauthorized.Error()})
	default:
		logger.ErrorWithFields(log, "request failed", logger.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.MessageDTO{Msg: serverErrorMsg})
	}
}
