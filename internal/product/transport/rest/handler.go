// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"
	"time"

	producterrors "github.com/abgdnv/productcatalog/internal/product/errors"
	"github.com/abgdnv/productcatalog/internal/product/service"
	"github.com/abgdnv/productcatalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	invalidDataFormat    = "Invalid data format"
	productAddedMessage  = "Product added successfully."
	healthCheckTimeout   = 2 * time.Second
	formURLEncodedMIME   = "application/x-www-form-urlencoded"
	jsonMIME             = "application/json"
	internalServerErrMsg = "Internal server error"
)

// CreatedResponse is the body returned after a product has been stored.
type CreatedResponse struct {
	Message   string `json:"message"`
	ProductID int64  `json:"productId"`
}

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the product REST handler with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.FindAll)
	r.Post("/products", h.Create)

	r.Get("/healthz", h.HealthCheck)
}

// FindAll retrieves a list of all products.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received request to find all products")
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, storageMessage(err))
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// Create handles the creation of a new product.
// Both JSON and url-encoded form bodies are accepted.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	productCreateDto, err := h.decodeCreate(w, r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, invalidDataFormat)
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to create product", "name", productCreateDto.Name)

	if err := h.validateCreate(productCreateDto); err != nil {
		var validationErr *producterrors.ValidationError
		if errors.As(err, &validationErr) {
			h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", validationErr.Fields)
		} else {
			h.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		}
		web.RespondError(w, h.logger, http.StatusBadRequest, invalidDataFormat)
		return
	}

	id, err := h.service.Create(r.Context(), productCreateDto)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, storageMessage(err))
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", id, "Name", productCreateDto.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, CreatedResponse{
		Message:   productAddedMessage,
		ProductID: id,
	})
}

// HealthCheck answers 200 while the store is reachable and 503 otherwise.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()
	if err := h.service.Ping(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "Health check failed", "error", err)
		web.RespondError(w, h.logger, http.StatusServiceUnavailable, storageMessage(err))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeCreate reads the create payload from a JSON or url-encoded form body.
// Other media types, a missing Content-Type and non-finite prices are rejected.
func (h *Handler) decodeCreate(w http.ResponseWriter, r *http.Request) (service.ProductCreateDto, error) {
	var dto service.ProductCreateDto
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return dto, fmt.Errorf("invalid content type: %w", err)
	}
	switch mediaType {
	case jsonMIME:
		if err := web.DecodeJSON(w, r, &dto); err != nil {
			return dto, err
		}
	case formURLEncodedMIME:
		r.Body = http.MaxBytesReader(w, r.Body, web.MaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return dto, err
		}
		dto.Name = r.PostForm.Get("name")
		if r.PostForm.Has("price") {
			price, err := strconv.ParseFloat(r.PostForm.Get("price"), 64)
			if err != nil {
				return dto, err
			}
			dto.Price = &price
		}
	default:
		return dto, fmt.Errorf("unsupported content type: %q", mediaType)
	}
	if dto.Price != nil && (math.IsInf(*dto.Price, 0) || math.IsNaN(*dto.Price)) {
		return dto, fmt.Errorf("price must be a finite number")
	}
	return dto, nil
}

// validateCreate checks the payload preconditions: a non-empty name and a price that is present.
// A zero price is valid.
func (h *Handler) validateCreate(dto service.ProductCreateDto) error {
	err := h.validate.Struct(dto)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		// fieldErr.Tag() returns "required", "max", etc.
		fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
	}
	return &producterrors.ValidationError{Fields: fields}
}

// storageMessage returns the text sent to clients for a failed store call: the
// storage layer's own message when there is one.
func storageMessage(err error) string {
	var storageErr *producterrors.StorageError
	if errors.As(err, &storageErr) {
		return storageErr.Error()
	}
	return internalServerErrMsg
}
