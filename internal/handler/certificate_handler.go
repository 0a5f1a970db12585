package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/pkg/config"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
	"github.com/haven-care/carehome-api/pkg/response"
	"github.com/haven-care/carehome-api/pkg/storage"
)

type certificateRecordService interface {
	Get(ctx context.Context, recordID string) (*dto.RecordItem, error)
	AttachCertificate(ctx context.Context, actorID, recordID, certificateRef string) error
}

// CertificateHandler manages certificate uploads and signed downloads.
type CertificateHandler struct {
	records certificateRecordService
	store   *storage.CertificateStore
	signer  *storage.SignedURLSigner
	cfg     config.CertificatesConfig
}

// NewCertificateHandler constructs a certificate handler.
func NewCertificateHandler(records certificateRecordService, store *storage.CertificateStore, signer *storage.SignedURLSigner, cfg config.CertificatesConfig) *CertificateHandler {
	return &CertificateHandler{records: records, store: store, signer: signer, cfg: cfg}
}

// Upload godoc
// @Summary Upload a certificate for a completed record
// @Tags Certificates
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Record id"
// @Param file formData file true "Certificate file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /records/{id}/certificate [post]
func (h *CertificateHandler) Upload(c *gin.Context) {
	recordID := c.Param("id")
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "certificate file is required"))
		return
	}
	if h.cfg.MaxFileSizeBytes > 0 && header.Size > h.cfg.MaxFileSizeBytes {
		response.Error(c, appErrors.New("FILE_TOO_LARGE", http.StatusRequestEntityTooLarge,
			fmt.Sprintf("certificate exceeds the %d byte limit", h.cfg.MaxFileSizeBytes)))
		return
	}
	if !h.mimeAllowed(header.Header.Get("Content-Type")) {
		response.Error(c, appErrors.New("UNSUPPORTED_MEDIA_TYPE", http.StatusUnsupportedMediaType, "certificate file type is not allowed"))
		return
	}

	src, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read uploaded certificate"))
		return
	}
	defer src.Close()

	ref := filepath.Join(recordID, uuid.NewString()+strings.ToLower(filepath.Ext(header.Filename)))
	if _, err := h.store.SaveStream(ref, src); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to store certificate"))
		return
	}
	if err := h.records.AttachCertificate(c.Request.Context(), actorID(claimsFromContext(c)), recordID, ref); err != nil {
		// The record rejected the attachment so the stored file is orphaned.
		_ = h.store.Delete(ref)
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"certificateRef": ref}, nil)
}

// Link godoc
// @Summary Generate a signed download link for a record's certificate
// @Tags Certificates
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/{id}/certificate/link [get]
func (h *CertificateHandler) Link(c *gin.Context) {
	recordID := c.Param("id")
	record, err := h.records.Get(c.Request.Context(), recordID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if record.CertificateRef == nil || *record.CertificateRef == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "record has no certificate"))
		return
	}
	token, expiresAt, err := h.signer.Generate(recordID, *record.CertificateRef)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to sign download link"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"token":     token,
		"url":       "/api/v1/certificates/download?token=" + token,
		"expiresAt": expiresAt,
	}, nil)
}

// Download godoc
// @Summary Download a certificate using a signed token
// @Description The token authenticates the request; no session is required
// @Tags Certificates
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {string} string "Certificate payload"
// @Failure 401 {object} response.Envelope
// @Router /certificates/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	_, certRef, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, http.StatusUnauthorized, "invalid or expired download token"))
		return
	}
	file, err := h.store.Open(certRef)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "certificate not found"))
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(certRef)))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

func (h *CertificateHandler) mimeAllowed(contentType string) bool {
	if len(h.cfg.AllowedMIMEs) == 0 {
		return true
	}
	mime := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, allowed := range h.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, mime) {
			return true
		}
	}
	return false
}
