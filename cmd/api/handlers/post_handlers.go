package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blog-system/cmd/api/auth"
	"blog-system/cmd/api/dto"
	"blog-system/cmd/api/middleware"
	"blog-system/cmd/api/services"
	"blog-system/internal/logger"
)

// identity 는 RequireUser 이후에만 호출된다. 값이 없으면 401 을 응답한다.
func identity(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.MessageDTO{Msg: auth.ErrMissingHeader.Error()})
		return "", false
	}
	return userID, true
}

func postInput(c *gin.Context) services.PostInput {
	return services.PostInput{
		Title:      c.PostForm("title"),
		Content:    c.PostForm("content"),
		IsMarkdown: formBool(c, "isMarkdown"),
		OnlyMe:     formBool(c, "onlyMe"),
	}
}

// CreatePostHandler godoc
// @Summary      Create post
// @Description  제목/본문/플래그와 최대 5개의 첨부파일로 포스트를 만든다.
// @Tags         posts
// @Security     ApiKeyAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        title        formData  string  true   "Title"
// @Param        content      formData  string  false  "Content (markdown or HTML)"
// @Param        isMarkdown   formData  string  false  "\"true\" for markdown"
// @Param        onlyMe       formData  string  false  "\"true\" for private"
// @Param        attachments  formData  file    false  "Attachments (max 5)"
// @Success      200  {object}  dto.PostDTO
// @Failure      400  {object}  dto.MessageDTO
// @Failure      401  {object}  dto.MessageDTO
// @Failure      500  {object}  dto.MessageDTO
// @Router       /posts [post]
func CreatePostHandler(svc *services.PostService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity(c)
		if !ok {
			return
		}

		uploads, closeAll, err := readUploads(c)
		defer closeAll()
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.MessageDTO{Msg: "Invalid form data"})
			return
		}

		post, err := svc.Create(c.Request.Context(), userID, postInput(c), uploads)
		if err != nil {
			writePostError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// ListPostsHandler godoc
// @Summary      List my posts
// @Description  로그인한 사용자의 포스트 전체를 최신순으로 반환한다.
// @Tags         posts
// @Security     ApiKeyAuth
// @Produce      json
// @Success      200  {array}   dto.PostDTO
// @Failure      401  {object}  dto.MessageDTO
// @Failure      500  {object}  dto.MessageDTO
// @Router       /posts [get]
func ListPostsHandler(svc *services.PostService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity(c)
		if !ok {
			return
		}
		posts, err := svc.List(c.Request.Context(), userID)
		if err != nil {
			writePostError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, posts)
	}
}

// GetPostHandler godoc
// @Summary      Get post by id
// @Description  다른 사용자의 포스트는 존재하지 않는 것처럼 404 를 반환한다.
// @Tags         posts
// @Security     ApiKeyAuth
// @Produce      json
// @Param        id   path      string  true  "ObjectID"
// @Success      200  {object}  dto.PostDTO
// @Failure      401  {object}  dto.MessageDTO
// @Failure      404  {object}  dto.MessageDTO
// @Router       /posts/{id} [get]
func GetPostHandler(svc *services.PostService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity(c)
		if !ok {
			return
		}
		post, err := svc.Get(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			writePostError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// UpdatePostHandler godoc
// @Summary      Update post
// @Description  스칼라 필드는 모두 덮어쓰고 새 첨부파일은 기존 목록 뒤에 붙는다.
// @Tags         posts
// @Security     ApiKeyAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id           path      string  true   "ObjectID"
// @Param        title        formData  string  true   "Title"
// @Param        content      formData  string  false  "Content"
// @Param        isMarkdown   formData  string  false  "\"true\" for markdown"
// @Param        onlyMe       formData  string  false  "\"true\" for private"
// @Param        attachments  formData  file    false  "Additional attachments (max 5)"
// @Success      200  {object}  dto.PostDTO
// @Failure      400  {object}  dto.MessageDTO
// @Failure      401  {object}  dto.MessageDTO
// @Failure      404  {object}  dto.MessageDTO
// @Failure      500  {object}  dto.MessageDTO
// @Router       /posts/{id} [put]
func UpdatePostHandler(svc *services.PostService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity(c)
		if !ok {
			return
		}

		uploads, closeAll, err := readUploads(c)
		defer closeAll()
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.MessageDTO{Msg: "Invalid form data"})
			return
		}

		post, err := svc.Update(c.Request.Context(), userID, c.Param("id"), postInput(c), uploads)
		if err != nil {
			writePostError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// DeletePostHandler godoc
// @Summary      Delete post
// @Description  첨부파일 삭제 실패는 기록만 하고 포스트는 삭제한다.
// @Tags         posts
// @Security     ApiKeyAuth
// @Produce      json
// @Param        id   path      string  true  "ObjectID"
// @Success      200  {object}  dto.MessageDTO
// @Failure      401  {object}  dto.MessageDTO
// @Failure      404  {object}  dto.MessageDTO
// @Failure      500  {object}  dto.MessageDTO
// @Router       /posts/{id} [delete]
func DeletePostHandler(svc *services.PostService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity(c)
		if !ok {
			return
		}
		msg, err := svc.Delete(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			writePostError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, msg)
	}
}

// UploadFilesHandler godoc
// @Summary      Upload files
// @Description  포스트와 무관하게 파일을 저장하고 {filename, path} 목록을 반환한다.
// @Tags         posts
// @Security     ApiKeyAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        attachments  formData  file  true  "Files (1-5)"
// @Success      200  {array}   dto.AttachmentDTO
// @Failure      400  {object}  dto.MessageDTO
// @Failure      401  {object}  dto.MessageDTO
// @Failure      500  {object}  dto.MessageDTO
// @Router       /posts/upload [post]
func UploadFilesHandler(svc *services.PostService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity(c)
		if !ok {
			return
		}

		uploads, closeAll, err := readUploads(c)
		defer closeAll()
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.MessageDTO{Msg: "Invalid form data"})
			return
		}

		atts, err := svc.UploadStandalone(c.Request.Context(), userID, uploads)
		if err != nil {
			writePostError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, atts)
	}
}
