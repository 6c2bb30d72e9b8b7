package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletfy-api/internal/service"
	"walletfy-api/internal/storage"
)

const attachmentURLExpiry = 15 * time.Minute

// AttachmentController stores event files in the object store. Routes sit behind the ownership check.
type AttachmentController struct {
	eventService service.EventService
	store        storage.AttachmentStore
	log          *zap.Logger
}

func NewAttachmentController(eventService service.EventService, store storage.AttachmentStore, log *zap.Logger) *AttachmentController {
	return &AttachmentController{
		eventService: eventService,
		store:        store,
		log:          log,
	}
}

// Upload handles POST /api/events/:id/attachment with a multipart "file" field
func (ac *AttachmentController) Upload(c *gin.Context) {
	id := c.Param("id")
	event, err := ac.eventService.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		respondError(c, ac.log, err, "Error al subir el archivo adjunto")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxAttachmentSize+1<<20)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Debe adjuntar un archivo en el campo 'file'",
		})
		return
	}
	if file.Size > storage.MaxAttachmentSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "El archivo adjunto no puede superar los 10 MB",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, ac.log, err, "Error al subir el archivo adjunto")
		return
	}
	defer src.Close()

	key := storage.AttachmentKey(event.ID, file.Filename)
	if err := ac.store.Put(c.Request.Context(), key, src, file.Size, file.Header.Get("Content-Type")); err != nil {
		respondError(c, ac.log, err, "Error al subir el archivo adjunto")
		return
	}

	updated, err := ac.eventService.SetAttachment(c.Request.Context(), userID(c), event.ID, key)
	if err != nil {
		// The event vanished between the lookup and the update
		if rmErr := ac.store.Remove(c.Request.Context(), key); rmErr != nil {
			ac.log.Warn("failed to remove orphaned attachment", zap.String("key", key), zap.Error(rmErr))
		}
		respondError(c, ac.log, err, "Error al subir el archivo adjunto")
		return
	}

	if storage.IsAttachmentKey(event.ID, event.Attachment) {
		if err := ac.store.Remove(c.Request.Context(), event.Attachment); err != nil {
			ac.log.Warn("failed to remove replaced attachment", zap.String("key", event.Attachment), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Archivo adjunto guardado exitosamente",
		"event":   updated,
	})
}

// Download handles GET /api/events/:id/attachment by redirecting to a short-lived URL
func (ac *AttachmentController) Download(c *gin.Context) {
	event, err := ac.eventService.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, ac.log, err, "Error al obtener el archivo adjunto")
		return
	}

	if !storage.IsAttachmentKey(event.ID, event.Attachment) {
		// Attachments saved as plain links are served as they are
		if strings.HasPrefix(event.Attachment, "http://") || strings.HasPrefix(event.Attachment, "https://") {
			c.Redirect(http.StatusFound, event.Attachment)
			return
		}
		ac.attachmentMissing(c)
		return
	}

	u, err := ac.store.PresignedURL(c.Request.Context(), event.Attachment, attachmentURLExpiry)
	if errors.Is(err, storage.ErrObjectNotFound) {
		ac.attachmentMissing(c)
		return
	}
	if err != nil {
		respondError(c, ac.log, err, "Error al obtener el archivo adjunto")
		return
	}

	c.Redirect(http.StatusFound, u)
}

func (ac *AttachmentController) attachmentMissing(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"message": "El evento no tiene un archivo adjunto",
	})
}

// ServeLocalFile handles GET /files/*key for links issued by an in-process store
func ServeLocalFile(store *storage.MemoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		expires, err := strconv.ParseInt(c.Query("expires"), 10, 64)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Enlace de descarga inválido",
			})
			return
		}

		data, contentType, err := store.Fetch(strings.TrimPrefix(c.Param("key"), "/"), expires)
		switch {
		case errors.Is(err, storage.ErrLinkExpired):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "El enlace de descarga ha expirado",
			})
		case err != nil:
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Archivo no encontrado",
			})
		default:
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			c.Data(http.StatusOK, contentType, data)
		}
	}
}
