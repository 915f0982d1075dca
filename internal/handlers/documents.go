package handlers

import (
	"net/http"

	"recoverydesk/internal/models"
	"recoverydesk/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (h *Handler) documentQuery(c *gin.Context) *gorm.DB {
	return h.db.WithContext(c.Request.Context()).
		Table("documents d").
		Select("d.*, f.debtor, u.name AS uploaded_by_name").
		Joins("LEFT JOIN files f ON d.file_id = f.id").
		Joins("LEFT JOIN users u ON d.uploaded_by = u.id").
		Order("d.created_at DESC")
}

func (h *Handler) FileDocuments(c *gin.Context) {
	fileID, ok := h.pathID(c, "fileId")
	if !ok {
		return
	}
	if !h.canAccessOwned(c, "files", fileID) {
		return
	}

	var docs []models.DocumentView
	if err := h.documentQuery(c).Where("d.file_id = ?", fileID).Scan(&docs).Error; err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": docs})
}

func (h *Handler) ClientDocuments(c *gin.Context) {
	clientID, ok := h.pathID(c, "clientId")
	if !ok {
		return
	}
	if !h.canAccessClient(c, clientID) {
		return
	}

	var docs []models.DocumentView
	if err := h.documentQuery(c).Where("d.client_id = ?", clientID).Scan(&docs).Error; err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching client documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": docs})
}

// UploadDocument stores the "document" part in the configured backend and
// records it. The blob is removed again when the row cannot be written.
func (h *Handler) UploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxDocumentSize+1<<20)

	header, err := c.FormFile("document")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "no file uploaded", err)
		return
	}
	var form models.UploadDocumentForm
	if err := c.ShouldBind(&form); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := services.ValidateDocument(header.Filename, header.Size); err != nil {
		h.handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	src, err := header.Open()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "could not read uploaded file", err)
		return
	}
	defer src.Close()

	ctx := c.Request.Context()
	key := services.NewDocumentKey(header.Filename)
	ref, err := h.documents.Save(ctx, key, src, header.Header.Get("Content-Type"))
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error uploading document", err)
		return
	}

	fileType := form.FileType
	if fileType == "" {
		fileType = "document"
	}
	uploadedBy := h.principal(c).ID
	doc := models.Document{
		FileID:     form.FileID,
		ClientID:   form.ClientID,
		FileName:   header.Filename,
		FilePath:   ref,
		Storage:    h.documents.Name(),
		FileType:   fileType,
		FileSize:   header.Size,
		UploadedBy: &uploadedBy,
	}
	if err := h.db.WithContext(ctx).Create(&doc).Error; err != nil {
		if derr := h.documents.Delete(ctx, ref); derr != nil {
			h.log.Warn("failed to remove orphaned document", zap.String("ref", ref), zap.Error(derr))
		}
		h.handleError(c, http.StatusInternalServerError, "error uploading document", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "document uploaded successfully", "data": doc})
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var doc models.Document
	if err := h.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		h.respondServiceError(c, "document not found", err)
		return
	}
	if err := h.db.WithContext(ctx).Delete(&doc).Error; err != nil {
		h.handleError(c, http.StatusInternalServerError, "error deleting document", err)
		return
	}

	// Rows written under another backend keep their blob; the configured store cannot reach it.
	if doc.Storage != h.documents.Name() {
		h.log.Warn("document blob left in previous storage backend",
			zap.Uint("document_id", doc.ID), zap.String("storage", doc.Storage))
	} else if err := h.documents.Delete(ctx, doc.FilePath); err != nil {
		h.log.Warn("failed to delete document blob", zap.Uint("document_id", doc.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "document deleted successfully"})
}
