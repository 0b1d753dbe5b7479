package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/assessment-delivery/internal/services"
	"github.com/SAP-F-2025/assessment-delivery/internal/utils"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	BaseHandler
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService, logger utils.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler:    NewBaseHandler(logger),
		catalogService: catalogService,
	}
}

// GetAccessibleTests lists the tests assigned to the user
// @Summary Accessible tests
// @Tags catalog
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} SuccessResponse{data=[]models.Test}
// @Router /users/{user_id}/tests [get]
func (h *CatalogHandler) GetAccessibleTests(c *gin.Context) {
	userID, ok := requireSelf(c)
	if !ok {
		return
	}

	tests, err := h.catalogService.GetAccessibleTests(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Tests retrieved", tests)
}

// GetAccessibleBatteries lists the batteries assigned to the user
// @Summary Accessible batteries
// @Tags catalog
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} SuccessResponse{data=[]models.Battery}
// @Router /users/{user_id}/batteries [get]
func (h *CatalogHandler) GetAccessibleBatteries(c *gin.Context) {
	userID, ok := requireSelf(c)
	if !ok {
		return
	}

	batteries, err := h.catalogService.GetAccessibleBatteries(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Batteries retrieved", batteries)
}

// GetTest returns a test the caller is entitled to, with ordered questions
// @Summary Get test
// @Tags catalog
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} SuccessResponse{data=models.Test}
// @Router /tests/{id} [get]
func (h *CatalogHandler) GetTest(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}

	ok, err := h.catalogService.CanAccessTest(c.Request.Context(), CallerID(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !ok {
		h.handleServiceError(c, services.ErrNoEntitlement)
		return
	}

	test, err := h.catalogService.GetTest(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Test retrieved", test)
}

// GetBattery returns a battery the caller is entitled to, members in order
// @Summary Get battery
// @Tags catalog
// @Produce json
// @Param id path uint true "Battery ID"
// @Success 200 {object} SuccessResponse{data=models.Battery}
// @Router /batteries/{id} [get]
func (h *CatalogHandler) GetBattery(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}

	ok, err := h.catalogService.CanAccessBattery(c.Request.Context(), CallerID(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !ok {
		h.handleServiceError(c, services.ErrNoEntitlement)
		return
	}

	battery, err := h.catalogService.GetBattery(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Battery retrieved", battery)
}
