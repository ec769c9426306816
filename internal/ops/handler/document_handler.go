package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
)

type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload attaches a multipart file to an ordered part. Kind comes from
// the form, defaulting to quotation.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	defer file.Close()

	kind := c.PostForm("kind")
	if kind == "" {
		kind = entity.DocQuotation
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.svc.Upload(c.Request.Context(), c.Param("id"), kind, actorID(c),
		file, header.Filename, header.Size, contentType)
	if err != nil {
		if errors.Is(err, service.ErrStorageUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": 50301, "message": err.Error()})
			return
		}
		fail(c, err)
		return
	}
	ok(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.svc.ListByOrderedPart(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, docs)
}

func (h *DocumentHandler) Download(c *gin.Context) {
	reader, doc, err := h.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrStorageUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": 50301, "message": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"code": 40403, "message": err.Error()})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", "attachment; filename="+doc.FileName)
	c.Header("Content-Type", doc.MimeType)
	c.Header("Content-Length", strconv.FormatInt(doc.FileSize, 10))
	io.Copy(c.Writer, reader)
}
