package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-idgen/internal/domain"
	"github.com/weiawesome/wes-idgen/internal/generator"
	"github.com/weiawesome/wes-idgen/internal/location"
	"github.com/weiawesome/wes-idgen/internal/service"
	"github.com/weiawesome/wes-idgen/pkg/log"
	"github.com/weiawesome/wes-idgen/pkg/middleware"
	"github.com/weiawesome/wes-idgen/pkg/response"
)

// HeaderLocationID selects the current location when neither the body nor
// the token carries one.
const HeaderLocationID = "X-Location-ID"

// Handler handles HTTP requests for the identifier service.
type Handler struct {
	identifierService service.IdentifierService
	authMiddleware    *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler. A nil authMiddleware leaves every
// route public.
func NewHandler(identifierService service.IdentifierService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		identifierService: identifierService,
		authMiddleware:    authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		sources := api.Group("/sources")
		if h.authMiddleware != nil {
			sources.Use(h.authMiddleware.RequireAuth())
		}
		{
			sources.GET("/:id", h.GetSource)
			sources.POST("/:id/identifiers", h.GenerateIdentifiers)
			sources.POST("/:id/validate", h.ValidateIdentifier)
			sources.POST("/:id/parse", h.ParseIdentifier)
			sources.POST("/:id/export", h.ExportIdentifiers)
		}
	}
}

// GetSource returns a source and its next sequence value.
func (h *Handler) GetSource(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sourceID, ok := sourceIDParam(c)
	if !ok {
		return
	}

	source, err := h.identifierService.GetSource(ctx, sourceID)
	if err != nil {
		if !writeError(c, err) {
			l.Error().Err(err).Int64(log.FieldSourceID, sourceID).Msg("failed to get source")
			response.InternalError(c, "failed to get source")
		}
		return
	}

	response.Success(c, source)
}

// GenerateIdentifiers generates a batch of identifiers.
func (h *Handler) GenerateIdentifiers(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sourceID, ok := sourceIDParam(c)
	if !ok {
		return
	}

	// an empty body asks for a single identifier
	var req domain.GenerateIdentifiersRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		l.Warn().Err(err).Msg("failed to bind generate identifiers request")
		response.BadRequest(c, err.Error())
		return
	}
	if req.LocationID, ok = currentLocationID(c, req.LocationID); !ok {
		return
	}
	req.UserID = middleware.GetUserID(c)

	resp, err := h.identifierService.GenerateIdentifiers(ctx, sourceID, &req)
	if err != nil {
		if !writeError(c, err) {
			l.Error().Err(err).Int64(log.FieldSourceID, sourceID).Msg("failed to generate identifiers")
			response.InternalError(c, "failed to generate identifiers")
		}
		return
	}

	response.Created(c, resp)
}

// ValidateIdentifier reports whether an identifier belongs to the source.
func (h *Handler) ValidateIdentifier(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sourceID, ok := sourceIDParam(c)
	if !ok {
		return
	}

	var req domain.IdentifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.LocationID, ok = currentLocationID(c, req.LocationID); !ok {
		return
	}

	resp, err := h.identifierService.ValidateIdentifier(ctx, sourceID, &req)
	if err != nil {
		if !writeError(c, err) {
			l.Error().Err(err).Int64(log.FieldSourceID, sourceID).Msg("failed to validate identifier")
			response.InternalError(c, "failed to validate identifier")
		}
		return
	}

	response.Success(c, resp)
}

// ParseIdentifier returns the seed an identifier was generated from.
func (h *Handler) ParseIdentifier(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sourceID, ok := sourceIDParam(c)
	if !ok {
		return
	}

	var req domain.IdentifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.LocationID, ok = currentLocationID(c, req.LocationID); !ok {
		return
	}

	resp, err := h.identifierService.ParseIdentifier(ctx, sourceID, &req)
	if err != nil {
		if !writeError(c, err) {
			l.Error().Err(err).Int64(log.FieldSourceID, sourceID).Msg("failed to parse identifier")
			response.InternalError(c, "failed to parse identifier")
		}
		return
	}

	response.Success(c, resp)
}

// ExportIdentifiers generates a batch and stores it as a file.
func (h *Handler) ExportIdentifiers(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sourceID, ok := sourceIDParam(c)
	if !ok {
		return
	}

	var req domain.ExportIdentifiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind export request")
		response.BadRequest(c, err.Error())
		return
	}
	if req.LocationID, ok = currentLocationID(c, req.LocationID); !ok {
		return
	}
	req.UserID = middleware.GetUserID(c)

	resp, err := h.identifierService.ExportIdentifiers(ctx, sourceID, &req)
	if err != nil {
		if !writeError(c, err) {
			l.Error().Err(err).Int64(log.FieldSourceID, sourceID).Msg("failed to export identifiers")
			response.InternalError(c, "failed to export identifiers")
		}
		return
	}

	response.Created(c, resp)
}

func sourceIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid source id")
		return 0, false
	}
	return id, true
}

// currentLocationID picks the location from the request body, then the
// token claim, then the X-Location-ID header.
func currentLocationID(c *gin.Context, fromBody *int64) (*int64, bool) {
	if fromBody != nil {
		return fromBody, true
	}
	if id, ok := middleware.GetLocationID(c); ok {
		return &id, true
	}
	if header := c.GetHeader(HeaderLocationID); header != "" {
		id, err := strconv.ParseInt(header, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid "+HeaderLocationID+" header")
			return nil, false
		}
		return &id, true
	}
	return nil, true
}

// writeError maps known errors to responses. It returns false when err has
// no specific mapping.
func writeError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrSourceNotFound):
		response.NotFound(c, "identifier source not found")
	case errors.Is(err, service.ErrLocationNotFound):
		response.NotFound(c, "location not found")
	case errors.Is(err, service.ErrInvalidCount):
		response.BadRequest(c, err.Error())
	case errors.Is(err, location.ErrNoLocationInContext):
		response.UnprocessableEntity(c, response.CodeNoLocation, err.Error())
	case errors.Is(err, location.ErrPrefixNotFound):
		response.UnprocessableEntity(c, response.CodePrefixNotFound, err.Error())
	case errors.Is(err, generator.ErrFormatMismatch):
		response.UnprocessableEntity(c, response.CodeFormatMismatch, err.Error())
	case errors.Is(err, generator.ErrCheckDigit), errors.Is(err, generator.ErrCheckDigitMismatch):
		response.UnprocessableEntity(c, response.CodeCheckDigitError, err.Error())
	case errors.Is(err, generator.ErrInvalidConfiguration), errors.Is(err, location.ErrUnknownProvider):
		response.UnprocessableEntity(c, response.CodeInvalidConfiguration, err.Error())
	default:
		return false
	}
	return true
}
