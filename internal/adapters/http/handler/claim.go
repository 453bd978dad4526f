package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/contract-claims/internal/adapters/http/middleware"
	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
	"github.com/shopspring/decimal"
)

// multipart のヘッダー分を見込んだリクエスト上限
const maxUploadBodySize = claim.MaxDocumentSize + 1<<20

// ClaimHandler は請求 API のハンドラーです。
type ClaimHandler struct {
	svc claim.UseCase
	log *slog.Logger
}

// NewClaimHandler は ClaimHandler を生成します。
func NewClaimHandler(svc claim.UseCase, log *slog.Logger) *ClaimHandler {
	return &ClaimHandler{svc: svc, log: log}
}

// SubmitClaimRequest は JSON で提出する場合のリクエストです。
type SubmitClaimRequest struct {
	LecturerName  string          `json:"lecturer_name"`
	LecturerEmail string          `json:"lecturer_email"`
	HoursWorked   decimal.Decimal `json:"hours_worked"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	Notes         string          `json:"notes"`
}

// ReviewRequest は承認・却下のリクエストです。
type ReviewRequest struct {
	Reason string `json:"reason"`
}

// SubmitClaimResponse は提出結果です。添付の保存に失敗した場合は Warning を設定します。
type SubmitClaimResponse struct {
	Claim   ClaimResponse `json:"claim"`
	Warning string        `json:"warning,omitempty"`
}

// TransitionResponse は承認・却下の結果です。
type TransitionResponse struct {
	Claim   ClaimResponse `json:"claim"`
	Outcome string        `json:"outcome"`
}

// Submit は請求を提出します。multipart/form-data の場合は document フィールドで添付ファイルを受け付けます。
func (h *ClaimHandler) Submit(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	in := claim.SubmitClaimInput{Actor: p}

	if c.ContentType() == gin.MIMEJSON {
		var req SubmitClaimRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_argument", Message: "invalid request body"})
			return
		}
		in.LecturerName = req.LecturerName
		in.LecturerEmail = req.LecturerEmail
		in.HoursWorked = req.HoursWorked
		in.HourlyRate = req.HourlyRate
		in.Notes = req.Notes
	} else {
		if err := parseUpload(c); err != nil {
			writeError(c, h.log, err)
			return
		}

		hours, err := formDecimal(c, "hours_worked")
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		rate, err := formDecimal(c, "hourly_rate")
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		in.HoursWorked = hours
		in.HourlyRate = rate
		in.LecturerName = c.PostForm("lecturer_name")
		in.LecturerEmail = c.PostForm("lecturer_email")
		in.Notes = c.PostForm("notes")

		doc, f, err := formDocument(c)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		if f != nil {
			defer f.Close()
		}
		in.Document = doc
	}

	created, err := h.svc.SubmitClaim(c.Request.Context(), in)
	if err != nil {
		var storageErr *claim.StorageError
		if errors.As(err, &storageErr) && created != nil {
			c.JSON(http.StatusCreated, SubmitClaimResponse{
				Claim:   toClaimResponse(created),
				Warning: "claim was saved but the document could not be stored, upload it again later",
			})
			return
		}
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, SubmitClaimResponse{Claim: toClaimResponse(created)})
}

// AttachDocument は既存の請求に添付ファイルを追加します。
func (h *ClaimHandler) AttachDocument(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := claimID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if err := parseUpload(c); err != nil {
		writeError(c, h.log, err)
		return
	}
	doc, f, err := formDocument(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if f != nil {
		defer f.Close()
	}

	updated, err := h.svc.AttachDocument(c.Request.Context(), claim.AttachDocumentInput{
		Actor:    p,
		ClaimID:  id,
		Document: doc,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toClaimResponse(updated))
}

// Get は請求を 1 件返します。
func (h *ClaimHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := claimID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	found, err := h.svc.GetClaim(c.Request.Context(), claim.GetClaimInput{Actor: p, ID: id})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toClaimResponse(found))
}

// ListMine は講師自身の請求を返します。
func (h *ClaimHandler) ListMine(c *gin.Context) {
	h.list(c, h.svc.ListOwnClaims)
}

// ListPending はコーディネーターの審査キューを返します。
func (h *ClaimHandler) ListPending(c *gin.Context) {
	h.list(c, h.svc.ListPendingQueue)
}

// ListApproval はマネージャーの審査キューを返します。
func (h *ClaimHandler) ListApproval(c *gin.Context) {
	h.list(c, h.svc.ListApprovalQueue)
}

// ListAll は全請求を返します。
func (h *ClaimHandler) ListAll(c *gin.Context) {
	h.list(c, h.svc.ListAllClaims)
}

// Approve は請求を承認します。
func (h *ClaimHandler) Approve(c *gin.Context) {
	h.review(c, h.svc.Approve)
}

// Reject は請求を却下します。
func (h *ClaimHandler) Reject(c *gin.Context) {
	h.review(c, h.svc.Reject)
}

func (h *ClaimHandler) list(c *gin.Context, fn func(ctx context.Context, in claim.ListInput) ([]*claim.Claim, error)) {
	p, ok := principal(c)
	if !ok {
		return
	}

	claims, err := fn(c.Request.Context(), claim.ListInput{Actor: p})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": toClaimResponses(claims)})
}

func (h *ClaimHandler) review(c *gin.Context, fn func(ctx context.Context, in claim.ReviewInput) (*claim.TransitionResult, error)) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := claimID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	var req ReviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_argument", Message: "invalid request body"})
			return
		}
	}

	result, err := fn(c.Request.Context(), claim.ReviewInput{Actor: p, ID: id, Reason: req.Reason})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, TransitionResponse{
		Claim:   toClaimResponse(result.Claim),
		Outcome: string(result.Outcome),
	})
}

func principal(c *gin.Context) (access.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "authentication required"})
		return access.Principal{}, false
	}
	return p, true
}

func claimID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, claim.ErrInvalidID
	}
	return id, nil
}

func formDecimal(c *gin.Context, field string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return decimal.Zero, &claim.ValidationError{Field: field, Message: "is required"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &claim.ValidationError{Field: field, Message: "must be a number"}
	}
	return d, nil
}

// parseUpload は本文サイズを制限してフォームを解析します。
func parseUpload(c *gin.Context) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBodySize)

	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		if err := c.Request.ParseForm(); err != nil {
			return uploadError(err)
		}
		return nil
	}
	if err := c.Request.ParseMultipartForm(maxUploadBodySize); err != nil {
		return uploadError(err)
	}
	return nil
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return &claim.ValidationError{Field: "form", Message: "could not parse request body"}
}

// formDocument は document フィールドを読み取ります。未指定の場合は nil を返します。
func formDocument(c *gin.Context) (*claim.Document, multipart.File, error) {
	header, err := c.FormFile("document")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, &claim.ValidationError{Field: "document", Message: "could not read uploaded file"}
	}

	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}

	return &claim.Document{FileName: header.Filename, Size: header.Size, Body: f}, f, nil
}
