package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockledger/stockledger/internal/catalog"
	"github.com/stockledger/stockledger/internal/platform/httpx"
)

// Handler wires the stock ledger HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleGetAll)
	r.Get("/{articleID}", h.handleGetOne)
	r.Post("/reserve", h.handleReserve)
	r.Post("/release", h.handleRelease)
	r.Post("/query", h.handleQuery)
}

type movementRequest struct {
	ArticleID   string `json:"article_id" validate:"omitempty,max=64"`
	ArticleCode string `json:"article_code" validate:"omitempty,max=64"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
	Warehouse   string `json:"warehouse" validate:"required"`
	Pending     bool   `json:"pending"`
}

type queryRequest struct {
	ArticleIDs   []string `json:"article_ids" validate:"max=500,dive,max=64"`
	ArticleCodes []string `json:"article_codes" validate:"max=500,dive,max=64"`
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.service.Reserve)
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.service.Release)
}

func (h *Handler) handleMovement(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, input MovementInput) (MovementResult, error)) {
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Errors(w, http.StatusBadRequest, []ErrorDetail{{Title: "Malformed request", Detail: "body must be a valid JSON movement payload"}})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Errors(w, http.StatusUnprocessableEntity, []ErrorDetail{{Title: "Invalid payload", Detail: err.Error()}})
		return
	}
	result, err := op(r.Context(), MovementInput{
		ArticleID:   req.ArticleID,
		ArticleCode: req.ArticleCode,
		Quantity:    req.Quantity,
		Warehouse:   req.Warehouse,
		Pending:     req.Pending,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Data(w, result)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Errors(w, http.StatusBadRequest, []ErrorDetail{{Title: "Malformed request", Detail: "body must be a valid JSON query payload"}})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Errors(w, http.StatusUnprocessableEntity, []ErrorDetail{{Title: "Invalid payload", Detail: err.Error()}})
		return
	}
	result, err := h.service.GetByArticles(r.Context(), req.ArticleIDs, req.ArticleCodes)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Data: result.Records, Errors: errsOrNil(result.Errors)})
}

func (h *Handler) handleGetOne(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.GetByArticle(r.Context(), chi.URLParam(r, "articleID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Data(w, record)
}

func (h *Handler) handleGetAll(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.GetAll(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Data(w, records)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if !Reportable(err) {
		h.logger.Error("ledger operation failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Errors(w, http.StatusInternalServerError, []ErrorDetail{DetailFor(err)})
		return
	}
	httpx.Errors(w, statusFor(err), []ErrorDetail{DetailFor(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrStockRecordNotFound), errors.Is(err, catalog.ErrCodeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func errsOrNil(details []ErrorDetail) any {
	if len(details) == 0 {
		return nil
	}
	return details
}
