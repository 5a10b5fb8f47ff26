package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"blog-system/cmd/api/dto"
	"blog-system/cmd/api/services"
)

const (
	headerInputTokens  = "X-Input-Tokens"
	headerOutputTokens = "X-Output-Tokens"
	headerChatRequest  = "X-Request-ID"
)

// ChatHandler godoc
// @Summary      Chat
// @Description  허용된 모델로 질의를 중계한다. 토큰 사용량은 응답 헤더로 내려간다.
// @Tags         chat
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ChatRequestDTO  true  "chat request"
// @Success      200   {object}  dto.ChatResponseDTO
// @Header       200   {string}  X-Input-Tokens   "prompt tokens"
// @Header       200   {string}  X-Output-Tokens  "completion tokens"
// @Header       200   {string}  X-Request-ID     "upstream response id"
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      401   {object}  dto.ErrorResponseDTO
// @Failure      429   {object}  dto.ErrorResponseDTO
// @Failure      500   {object}  dto.ErrorResponseDTO
// @Router       /chat [post]
func ChatHandler(svc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ChatRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "Invalid request body"})
			return
		}

		res, err := svc.Chat(c.Request.Context(), services.ChatInput{Message: req.Message, Model: req.Model})
		if err != nil {
			c.JSON(chatStatus(err), dto.ErrorResponseDTO{Error: err.Error()})
			return
		}

		c.Header(headerInputTokens, strconv.Itoa(int(res.InputTokens)))
		c.Header(headerOutputTokens, strconv.Itoa(int(res.OutputTokens)))
		if res.RequestID != "" {
			c.Header(headerChatRequest, res.RequestID)
		}
		c.JSON(http.StatusOK, dto.ChatResponseDTO{Reply: res.Reply})
	}
}

func chatStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidModel), errors.Is(err, services.ErrChatEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrChatAuth):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrChatRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
