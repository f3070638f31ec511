package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	"github.com/tu-usuario/pdv-pro/internal/application/usecase"
	"github.com/tu-usuario/pdv-pro/internal/domain"
	"github.com/tu-usuario/pdv-pro/internal/domain/nfe"
	"github.com/tu-usuario/pdv-pro/internal/domain/repository"
)

// NfeHandler maneja la importación y consulta de notas fiscales (protegido).
type NfeHandler struct {
	uc *usecase.NfeUseCase
}

// NewNfeHandler construye el handler.
func NewNfeHandler(uc *usecase.NfeUseCase) *NfeHandler {
	return &NfeHandler{uc: uc}
}

// Parse godoc
// @Summary      Importar XML de NF-e
// @Description  Extrae productos, emisor y cabecera; deduplica por chave de acesso
// @Tags         nfe
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ParseNfeRequest  true  "Contenido XML de la nota"
// @Success      200   {object}  dto.ParseNfeResponse
// @Failure      400   {object}  dto.ParseNfeErrorResponse
// @Router       /api/nfe/parse [post]
func (h *NfeHandler) Parse(c *fiber.Ctx) error {
	establishmentID := GetEstablishmentID(c)
	if establishmentID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "establishment_id requerido"})
	}
	var in dto.ParseNfeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ParseNfeErrorResponse{Success: false, Error: "cuerpo inválido"})
	}
	out, err := h.uc.Import(establishmentID, in)
	if err != nil {
		var malformed *nfe.MalformedDocumentError
		if errors.As(err, &malformed) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ParseNfeErrorResponse{
				Success: false,
				Error:   "XML de NF-e inválido",
				Details: malformed.Error(),
			})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ParseNfeErrorResponse{Success: false, Error: "xmlContent es requerido"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de importaciones de NF-e
// @Tags         nfe
// @Security     Bearer
// @Produce      json
// @Param        startDate  query  string  false  "Fecha inicial (RFC3339)"
// @Param        endDate    query  string  false  "Fecha final (RFC3339)"
// @Param        limit      query  int     false  "Tamaño de página"  default(20)
// @Param        offset     query  int     false  "Desplazamiento"    default(0)
// @Success      200  {object}  dto.NfeHistoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/nfe/history [get]
func (h *NfeHandler) History(c *fiber.Ctx) error {
	establishmentID := GetEstablishmentID(c)
	if establishmentID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "establishment_id requerido"})
	}

	var filter repository.NfeImportFilter
	if raw := c.Query("startDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "startDate debe ser RFC3339"})
		}
		filter.StartDate = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "endDate debe ser RFC3339"})
		}
		filter.EndDate = &t
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	out, err := h.uc.History(establishmentID, filter, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de una importación
// @Tags         nfe
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la importación"
// @Success      200  {object}  dto.NfeImportSummary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/nfe/{id} [get]
func (h *NfeHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	out, err := h.uc.GetByID(id, GetEstablishmentID(c))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "importación no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// GetXML godoc
// @Summary      Descargar el XML original de una importación
// @Tags         nfe
// @Security     Bearer
// @Produce      xml
// @Param        id   path  string  true  "ID de la importación"
// @Success      200  {string}  string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/nfe/{id}/xml [get]
func (h *NfeHandler) GetXML(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	xmlContent, err := h.uc.GetXML(id, GetEstablishmentID(c))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "importación no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.SendString(xmlContent)
}
