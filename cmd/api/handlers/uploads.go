package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"blog-system/storage"
)

// 프론트엔드는 attachments 필드로 보내지만 attachments[] 도 받아 준다.
var attachmentFields = []string{"attachments", "attachments[]"}

// readUploads 는 multipart 요청의 첨부파일을 열어 storage.Upload 로 만든다.
// multipart 가 아닌 요청은 파일 없음으로 본다. 반환된 closeAll 은 호출자가 호출한다.
func readUploads(c *gin.Context) (uploads []storage.Upload, closeAll func(), err error) {
	var opened []multipart.File
	closeAll = func() {
		for _, f := range opened {
			f.Close()
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, closeAll, nil
		}
		return nil, closeAll, err
	}

	for _, field := range attachmentFields {
		for _, fh := range form.File[field] {
			f, err := fh.Open()
			if err != nil {
				closeAll()
				return nil, func() {}, err
			}
			opened = append(opened, f)
			uploads = append(uploads, storage.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Reader:      f,
			})
		}
	}
	return uploads, closeAll, nil
}

// formBool 은 "true" 만 참으로 본다.
func formBool(c *gin.Context, key string) bool {
	return c.PostForm(key) == "true"
}
