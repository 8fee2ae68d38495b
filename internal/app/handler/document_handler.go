package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"asdm/internal/app/apperr"
	"asdm/internal/app/authz"
	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
	"asdm/internal/app/metrics"
	"asdm/internal/app/repository"
	"asdm/internal/app/storage"
)

const uploadField = "fichier"

// UploadDocument attaches a file to a grant request
// @Summary Upload a document
// @Description Multipart upload. taille_fichier is the number of bytes actually stored.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param demande_id formData int true "Grant request ID"
// @Param nom formData string true "Document name"
// @Param type formData string true "piece_identite, justificatif, devis, rapport or autre"
// @Param fichier formData file true "File"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/documents [post]
func (h *Handler) UploadDocument(c *gin.Context) {
	h.upload(c, 0)
}

// UploadGrantRequestDocument attaches a file to the grant request in the path
// @Summary Upload a document to a grant request
// @Tags Demandes
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Request ID"
// @Param nom formData string true "Document name"
// @Param type formData string true "piece_identite, justificatif, devis, rapport or autre"
// @Param fichier formData file true "File"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/demandes/{id}/documents [post]
func (h *Handler) UploadGrantRequestDocument(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	h.upload(c, id)
}

// upload stores the "fichier" part for grantRequestID, or for the demande_id
// form field when grantRequestID is 0.
func (h *Handler) upload(c *gin.Context, grantRequestID uint) {
	s, ok := h.authorize(c, authz.ActionCreate, authz.ResourceDocument, nil)
	if !ok {
		return
	}
	var form dto.UploadDocumentForm
	if err := c.ShouldBindWith(&form, binding.FormMultipart); err != nil {
		h.errorHandler(c, bindingError(err))
		return
	}
	if grantRequestID == 0 {
		grantRequestID = form.GrantRequestID
	}
	if grantRequestID == 0 {
		h.errorHandler(c, apperr.Invalid("demande_id", "required"))
		return
	}

	ctx := c.Request.Context()
	req, err := h.Repository.GetGrantRequestHeader(ctx, grantRequestID)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	doc := &ds.Document{
		GrantRequestID: req.ID,
		GrantRequest:   *req,
		Name:           strings.TrimSpace(form.Name),
		Type:           ds.DocumentType(form.Type),
		UploadedBy:     s.UserID,
	}
	if _, ok := h.authorize(c, authz.ActionCreate, authz.ResourceDocument, doc); !ok {
		return
	}

	header, err := c.FormFile(uploadField)
	if err != nil {
		h.errorHandler(c, apperr.Invalid(uploadField, "required"))
		return
	}
	if limit := h.Config.Storage.MaxSize; limit > 0 && header.Size > limit {
		h.errorHandler(c, apperr.Invalid(uploadField, "too_large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.errorHandler(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	obj, err := h.Files.Save(ctx, header.Filename, file)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	doc.Path = obj.Key
	doc.ContentType = obj.ContentType
	if err := h.Workflow.NewDocument(doc, obj.Size); err != nil {
		h.discard(c, obj.Key, err)
		return
	}
	if err := h.Repository.CreateDocument(ctx, doc); err != nil {
		h.discard(c, obj.Key, err)
		return
	}
	metrics.RecordUpload(obj.Size)

	logrus.WithFields(logrus.Fields{
		"document": doc.ID,
		"demande":  doc.GrantRequestID,
		"size":     doc.Size,
	}).Info("document uploaded")
	c.JSON(http.StatusCreated, toDocumentResponse(doc))
}

// discard removes a stored file whose metadata could not be saved, then
// answers with err.
func (h *Handler) discard(c *gin.Context, key string, err error) {
	h.removeFiles(c.Request.Context(), []string{key})
	h.errorHandler(c, err)
}

// ListDocuments lists documents; a demandeur only sees those of its requests
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param demande_id query int false "Grant request ID"
// @Param type query string false "Document type"
// @Success 200 {object} dto.ListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/documents [get]
func (h *Handler) ListDocuments(c *gin.Context) {
	s, ok := h.authorize(c, authz.ActionList, authz.ResourceDocument, nil)
	if !ok {
		return
	}
	f := repository.DocumentFilter{OwnerID: h.Gate.OwnerScope(s, authz.ResourceDocument)}
	var err error
	if f.GrantRequestID, err = queryUint(c, "demande_id"); err != nil {
		h.errorHandler(c, err)
		return
	}
	if f.Type, err = queryChoice(c, "type", ds.DocumentType.Valid); err != nil {
		h.errorHandler(c, err)
		return
	}
	h.listDocuments(c, f)
}

// ListGrantRequestDocuments lists the documents of one grant request
// @Summary List the documents of a grant request
// @Tags Demandes
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} dto.ListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/demandes/{id}/documents [get]
func (h *Handler) ListGrantRequestDocuments(c *gin.Context) {
	req, _, ok := h.loadGrantRequest(c, authz.ActionView)
	if !ok {
		return
	}
	h.listDocuments(c, repository.DocumentFilter{GrantRequestID: &req.ID})
}

func (h *Handler) listDocuments(c *gin.Context, f repository.DocumentFilter) {
	docs, err := h.Repository.ListDocuments(c.Request.Context(), f)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	results := make([]dto.DocumentResponse, len(docs))
	for i := range docs {
		results[i] = toDocumentResponse(&docs[i])
	}
	c.JSON(http.StatusOK, dto.ListResponse{Count: len(results), Results: results})
}

// GetDocument returns document metadata
// @Summary Get a document
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} dto.DocumentResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/documents/{id} [get]
func (h *Handler) GetDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c, authz.ActionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

// DownloadDocument streams the stored file
// @Summary Download a document
// @Tags Documents
// @Produce octet-stream
// @Param id path int true "Document ID"
// @Success 200 {file} file
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/documents/{id}/fichier [get]
func (h *Handler) DownloadDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c, authz.ActionView)
	if !ok {
		return
	}
	rc, err := h.Files.Open(c.Request.Context(), doc.Path)
	if errors.Is(err, storage.ErrNotFound) {
		h.errorHandler(c, apperr.NotFound("fichier", doc.ID))
		return
	}
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	defer rc.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, doc.Size, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.Name),
	})
}

// UpdateDocument renames or retypes a document
// @Summary Update a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param request body dto.UpdateDocumentRequest true "Fields to change"
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/documents/{id} [put]
func (h *Handler) UpdateDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c, authz.ActionUpdate)
	if !ok {
		return
	}
	var request dto.UpdateDocumentRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	if request.Name != nil {
		doc.Name = strings.TrimSpace(*request.Name)
	}
	if request.Type != nil {
		doc.Type = ds.DocumentType(*request.Type)
	}
	if doc.Name == "" {
		h.errorHandler(c, apperr.Invalid("nom", "required"))
		return
	}
	if err := h.Repository.SaveDocument(c.Request.Context(), doc); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

// DeleteDocument removes a document and its stored file
// @Summary Delete a document
// @Tags Documents
// @Param id path int true "Document ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/documents/{id} [delete]
func (h *Handler) DeleteDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c, authz.ActionDelete)
	if !ok {
		return
	}
	if err := h.Repository.DeleteDocument(c.Request.Context(), doc.ID); err != nil {
		h.errorHandler(c, err)
		return
	}
	h.removeFiles(c.Request.Context(), []string{doc.Path})
	c.Status(http.StatusNoContent)
}

func (h *Handler) loadDocument(c *gin.Context, action authz.Action) (*ds.Document, bool) {
	if _, ok := h.authorize(c, action, authz.ResourceDocument, nil); !ok {
		return nil, false
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	doc, err := h.Repository.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	if _, ok := h.authorize(c, action, authz.ResourceDocument, doc); !ok {
		return nil, false
	}
	return doc, true
}
