package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pdv-pro/internal/application/dto"
	syncapp "github.com/tu-usuario/pdv-pro/internal/application/sync"
)

// SyncHandler expone los endpoints de sincronización consumidos por los
// agentes de los terminales PDV (protegido por JWT).
type SyncHandler struct {
	uc *syncapp.UseCase
}

// NewSyncHandler construye el handler.
func NewSyncHandler(uc *syncapp.UseCase) *SyncHandler {
	return &SyncHandler{uc: uc}
}

// PushProducts godoc
// @Summary      Subir productos del terminal
// @Description  Last-write-wins por updatedAt; los conflictos se reportan en la respuesta
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncProductsRequest  true  "Productos pendientes"
// @Success      200   {object}  dto.SyncResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sync/products [post]
func (h *SyncHandler) PushProducts(c *fiber.Ctx) error {
	establishmentID := GetEstablishmentID(c)
	if establishmentID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "establishment_id requerido"})
	}
	var in dto.SyncProductsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.PushProducts(establishmentID, in)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// PushSales godoc
// @Summary      Subir ventas del terminal
// @Description  Idempotente por (establecimiento, numero); reenvíos no duplican
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncSalesRequest  true  "Ventas pendientes"
// @Success      200   {object}  dto.SyncResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sync/sales [post]
func (h *SyncHandler) PushSales(c *fiber.Ctx) error {
	establishmentID := GetEstablishmentID(c)
	if establishmentID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "establishment_id requerido"})
	}
	var in dto.SyncSalesRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.PushSales(establishmentID, GetUserID(c), in)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// PullProducts godoc
// @Summary      Descargar productos actualizados
// @Description  Devuelve productos con updatedAt estrictamente posterior a since, orden ascendente
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Param        since  query  string  false  "Marca de agua RFC3339"
// @Success      200    {object}  dto.PullProductsResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/sync/products [get]
func (h *SyncHandler) PullProducts(c *fiber.Ctx) error {
	establishmentID := GetEstablishmentID(c)
	if establishmentID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "establishment_id requerido"})
	}
	since, err := parseSince(c.Query("since"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_SINCE", Message: "since debe ser RFC3339"})
	}
	out, err := h.uc.PullProductsSince(establishmentID, since)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// PullSales godoc
// @Summary      Descargar ventas actualizadas
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Param        since  query  string  false  "Marca de agua RFC3339"
// @Success      200    {object}  dto.PullSalesResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/sync/sales [get]
func (h *SyncHandler) PullSales(c *fiber.Ctx) error {
	establishmentID := GetEstablishmentID(c)
	if establishmentID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "establishment_id requerido"})
	}
	since, err := parseSince(c.Query("since"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_SINCE", Message: "since debe ser RFC3339"})
	}
	out, err := h.uc.PullSalesSince(establishmentID, since)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// Status godoc
// @Summary      Estado de sincronización del establecimiento
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SyncStatusResponse
// @Router       /api/sync/status [get]
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	establishmentID := GetEstablishmentID(c)
	if establishmentID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "establishment_id requerido"})
	}
	out, err := h.uc.Status(establishmentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// parseSince interpreta la marca de agua del query param. Ausente equivale a
// sincronización completa (tiempo cero). Acepta RFC3339 con o sin fracción.
func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
