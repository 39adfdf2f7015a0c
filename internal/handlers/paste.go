package handlers

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/paste-go/internal/analytics"
	"github.com/serroba/paste-go/internal/messaging"
	"github.com/serroba/paste-go/internal/metrics"
	"github.com/serroba/paste-go/internal/middleware"
	"github.com/serroba/paste-go/internal/paste"
	"github.com/serroba/paste-go/internal/render"
	"go.uber.org/zap"
)

// DefaultMaxLength bounds uploads when Config.MaxLength is unset.
const DefaultMaxLength = 10 << 20

const helpBaseURL = "https://paste.example.com"

//go:embed help.md
var defaultHelp []byte

// Config holds the HTTP-facing settings of PasteHandler.
type Config struct {
	BaseURL   string
	MaxLength int64
	// HelpPage is markdown; the embedded help.md is used when empty.
	HelpPage []byte
}

// PasteHandler handles paste uploads, views, updates and deletes.
type PasteHandler struct {
	repo        paste.Repository
	baseURL     string
	maxLength   int64
	help        []byte
	highlighter *render.Highlighter
	events      analytics.Publishers
	metrics     *metrics.Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewPasteHandler creates a new paste handler. The help page is rendered once.
func NewPasteHandler(
	repo paste.Repository,
	cfg Config,
	highlighter *render.Highlighter,
	events analytics.Publishers,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) *PasteHandler {
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	source := cfg.HelpPage
	if len(source) == 0 {
		source = []byte(strings.ReplaceAll(string(defaultHelp), helpBaseURL, baseURL))
	}

	help, err := render.Markdown(source)
	if err != nil {
		logger.Warn("rendering help page failed", zap.Error(err))

		help = []byte("cmd | curl -F c=@- " + baseURL + "/")
	}

	return &PasteHandler{
		repo:        repo,
		baseURL:     baseURL,
		maxLength:   maxLength,
		help:        help,
		highlighter: highlighter,
		events:      events,
		metrics:     recorder,
		logger:      logger,
		now:         time.Now,
	}
}

func (h *PasteHandler) Help(_ context.Context, _ *struct{}) (*HelpResponse, error) {
	return &HelpResponse{ContentType: "text/html; charset=utf-8", Body: h.help}, nil
}

func (h *PasteHandler) Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error) {
	return h.create(ctx, &req.RawBody, false, "")
}

func (h *PasteHandler) UploadLink(ctx context.Context, req *UploadRequest) (*UploadResponse, error) {
	return h.create(ctx, &req.RawBody, true, "")
}

func (h *PasteHandler) UploadAlias(ctx context.Context, req *AliasUploadRequest) (*UploadResponse, error) {
	if strings.ContainsAny(req.Alias, "./") {
		return nil, huma.Error400BadRequest("alias must not contain '.' or '/'")
	}

	return h.create(ctx, &req.RawBody, false, req.Alias)
}

func (h *PasteHandler) create(ctx context.Context, form *multipart.Form, asLink bool, alias string) (*UploadResponse, error) {
	payload, seconds, err := h.readForm(form, asLink)
	if err != nil {
		return nil, err
	}

	rec, err := h.repo.Create(ctx, paste.CreateInput{
		Payload:     payload,
		CustomAlias: alias,
		DestroyTime: paste.ExpiresIn(h.now(), seconds),
	})
	h.metrics.Observe(metrics.OperationCreate, err)

	var conflict *paste.ConflictError
	if errors.As(err, &conflict) && conflict.Existing != nil {
		h.logger.Info("paste existed",
			zap.String("namespace", conflict.Namespace.String()),
			zap.String("id", conflict.Existing.ID.String()),
		)

		return h.uploadResponse(conflict.Existing, http.StatusFound, StatusExisted), nil
	}

	if err != nil {
		return nil, h.storeError(err)
	}

	h.metrics.ObserveUpload(rec.Size())

	meta := middleware.MetaFromContext(ctx)
	publish(ctx, h.logger, analytics.TopicPasteCreated, h.events.Created, &analytics.PasteCreatedEvent{
		ID:        rec.ID.String(),
		ShortCode: string(rec.ShortCode),
		Alias:     rec.CustomAlias,
		Kind:      string(rec.Payload.Kind()),
		Digest:    rec.ContentHash.String(),
		Size:      rec.Size(),
		CreatedAt: rec.CreatedAt,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	})

	h.logger.Info("paste created",
		zap.String("short", string(rec.ShortCode)),
		zap.Int("size", rec.Size()),
	)

	return h.uploadResponse(rec, http.StatusCreated, StatusCreated), nil
}

func (h *PasteHandler) View(ctx context.Context, req *ViewRequest) (*ViewResponse, error) {
	key, ext := splitKey(req.Key)

	rec, err := h.repo.Read(ctx, key)
	h.metrics.Observe(metrics.OperationRead, err)

	if errors.Is(err, paste.ErrExpired) {
		publish(ctx, h.logger, analytics.TopicPasteExpired, h.events.Expired, &analytics.PasteExpiredEvent{
			Key:       key,
			ExpiredAt: h.now(),
		})
	}

	if err != nil {
		return nil, h.storeError(err)
	}

	meta := middleware.MetaFromContext(ctx)
	publish(ctx, h.logger, analytics.TopicPasteAccessed, h.events.Accessed, &analytics.PasteAccessedEvent{
		Key:        req.Key,
		ID:         rec.ID.String(),
		Kind:       string(rec.Payload.Kind()),
		AccessedAt: h.now(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	})

	switch p := rec.Payload.(type) {
	case paste.ShortLink:
		return &ViewResponse{Status: http.StatusFound, Location: p.Target}, nil
	case paste.Binary:
		return &ViewResponse{Status: http.StatusOK, ContentType: "application/octet-stream", Body: p.Data}, nil
	case paste.Text:
		if ext != "" {
			if page, ok := h.highlight(p.Content, ext); ok {
				return &ViewResponse{Status: http.StatusOK, ContentType: "text/html; charset=utf-8", Body: page}, nil
			}
		}

		return &ViewResponse{Status: http.StatusOK, ContentType: "text/plain; charset=utf-8", Body: []byte(p.Content)}, nil
	default:
		return nil, huma.Error500InternalServerError("unknown paste kind")
	}
}

func (h *PasteHandler) highlight(content, ext string) ([]byte, bool) {
	page, ok, err := h.highlighter.Highlight(content, ext)
	if err != nil {
		h.logger.Warn("highlighting failed", zap.String("ext", ext), zap.Error(err))

		return nil, false
	}

	return page, ok
}

func (h *PasteHandler) Update(ctx context.Context, req *UpdateRequest) (*UploadResponse, error) {
	id, err := paste.ParseID(req.ID)
	if err != nil {
		return nil, huma.Error404NotFound(paste.ErrNotFound.Error())
	}

	payload, _, err := h.readForm(&req.RawBody, false)
	if err != nil {
		return nil, err
	}

	rec, err := h.repo.Update(ctx, id, payload)
	h.metrics.Observe(metrics.OperationUpdate, err)

	if err != nil {
		return nil, h.storeError(err)
	}

	h.metrics.ObserveUpload(rec.Size())

	return h.uploadResponse(rec, http.StatusOK, StatusUpdated), nil
}

func (h *PasteHandler) Delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	id, err := paste.ParseID(req.ID)
	if err != nil {
		return nil, huma.Error404NotFound(paste.ErrNotFound.Error())
	}

	err = h.repo.Delete(ctx, id)
	h.metrics.Observe(metrics.OperationDelete, err)

	if err != nil {
		return nil, h.storeError(err)
	}

	publish(ctx, h.logger, analytics.TopicPasteDeleted, h.events.Deleted, &analytics.PasteDeletedEvent{
		ID:        id.String(),
		DeletedAt: h.now(),
		ClientIP:  middleware.MetaFromContext(ctx).ClientIP,
	})

	resp := &DeleteResponse{}
	resp.Body.ID = id.String()
	resp.Body.Status = StatusDeleted

	return resp, nil
}

// readForm extracts and classifies the uploaded content.
func (h *PasteHandler) readForm(form *multipart.Form, asLink bool) (paste.Payload, int64, error) {
	data, err := formContent(form, h.maxLength)
	if err != nil {
		if errors.Is(err, paste.ErrEmptyPayload) {
			return nil, 0, huma.Error400BadRequest("missing content field 'c'")
		}

		return nil, 0, huma.Error400BadRequest("invalid upload", err)
	}

	if int64(len(data)) > h.maxLength {
		return nil, 0, huma.Error413RequestEntityTooLarge(
			fmt.Sprintf("content exceeds %d bytes", h.maxLength))
	}

	seconds, err := formExpiry(form)
	if err != nil {
		return nil, 0, huma.Error400BadRequest(err.Error())
	}

	payload, err := paste.Classify(data, asLink)
	if err != nil {
		return nil, 0, huma.Error400BadRequest(err.Error())
	}

	return payload, seconds, nil
}

func (h *PasteHandler) uploadResponse(rec *paste.Record, status int, outcome string) *UploadResponse {
	address := string(rec.ShortCode)
	if rec.CustomAlias != "" {
		address = rec.CustomAlias
	}

	url := fmt.Sprintf("%s/%s", h.baseURL, address)

	resp := &UploadResponse{Status: status}
	resp.Location = url
	resp.Body = UploadBody{
		Date:   rec.CreatedAt,
		Digest: rec.ContentHash.String(),
		Short:  string(rec.ShortCode),
		ID:     rec.ID.String(),
		Alias:  rec.CustomAlias,
		Size:   rec.Size(),
		URL:    url,
		Status: outcome,
	}

	return resp
}

// storeError maps a Repository error to an HTTP error.
func (h *PasteHandler) storeError(err error) error {
	switch {
	case errors.Is(err, paste.ErrNotFound):
		return huma.Error404NotFound(paste.ErrNotFound.Error())
	case errors.Is(err, paste.ErrExpired):
		return huma.NewError(http.StatusGone, paste.ErrExpired.Error())
	case errors.Is(err, paste.ErrConflict):
		return huma.Error409Conflict(paste.ErrConflict.Error())
	case errors.Is(err, paste.ErrCommitFailed):
		return huma.Error503ServiceUnavailable("storage unavailable, retry later")
	case errors.Is(err, paste.ErrUnknownPayload), errors.Is(err, paste.ErrMalformedLink),
		errors.Is(err, paste.ErrInvalidAlias):
		return huma.Error400BadRequest(err.Error())
	default:
		h.logger.Error("store operation failed", zap.Error(err))

		return huma.Error500InternalServerError("internal error")
	}
}

// publish sends an analytics event. Failures are logged, never returned.
func publish[T any](ctx context.Context, logger *zap.Logger, topic string, fn messaging.Publish[T], event *T) {
	if fn == nil {
		return
	}

	if err := fn(ctx, event); err != nil {
		logger.Error("failed to publish analytics event",
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}
