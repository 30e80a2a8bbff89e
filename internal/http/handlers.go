package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"blackcoffe/internal/apperr"
	"blackcoffe/internal/auth"
	"blackcoffe/internal/repository"
	"blackcoffe/internal/service"
)

const identityKey = "identity"

type Server struct {
	engine       *gin.Engine
	orders       *service.OrderService
	invoices     *service.InvoiceService
	reservations *service.ReservationService
	catalog      repository.CatalogRepository
	settings     service.SettingsProvider
	tokens       *auth.Manager
	log          *slog.Logger
}

func NewServer(
	orders *service.OrderService,
	invoices *service.InvoiceService,
	reservations *service.ReservationService,
	catalog repository.CatalogRepository,
	settings service.SettingsProvider,
	tokens *auth.Manager,
	log *slog.Logger,
) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s := &Server{
		engine:       r,
		orders:       orders,
		invoices:     invoices,
		reservations: reservations,
		catalog:      catalog,
		settings:     settings,
		tokens:       tokens,
		log:          log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/products", s.listProducts)
		v1.GET("/storefront/settings", s.getStorefrontSettings)

		orders := v1.Group("/orders")
		orders.POST("/preview", s.previewOrder)
		orders.POST("", s.requireAuth, s.placeOrder)
		orders.GET("", s.requireAuth, s.myOrders)
		orders.GET(":id/invoice", s.requireAuth, s.getInvoice)
		orders.PATCH(":id/status", s.requireAuth, s.requireStaff, s.updateOrderStatus)

		reservations := v1.Group("/reservations")
		reservations.POST("", s.requireAuth, s.createReservation)
		reservations.GET("/my", s.requireAuth, s.myReservations)
		reservations.GET("", s.requireAuth, s.requireStaff, s.listReservations)
		reservations.PATCH(":id/status", s.requireAuth, s.requireStaff, s.updateReservationStatus)
	}
}

// middleware

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Debes iniciar sesion."})
		return
	}
	id, err := s.tokens.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Sesion invalida o expirada."})
		return
	}
	c.Set(identityKey, id)
	c.Next()
}

func (s *Server) requireStaff(c *gin.Context) {
	if !identityFrom(c).IsStaff() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Solo personal autorizado."})
		return
	}
	c.Next()
}

func identityFrom(c *gin.Context) auth.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(auth.Identity)
	return id
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusServiceUnavailable {
		// never leak storage internals; the request log carries the cause
		s.log.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(status, gin.H{"error": "Servicio no disponible."})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// order handlers

type previewReq struct {
	Items []service.PreviewItem `json:"items" binding:"required,min=1,dive"`
}

// @Summary Preview an order
// @Description Prices a candidate item list without persisting anything.
// @Tags orders
// @Accept json
// @Produce json
// @Param input body previewReq true "Items"
// @Success 200 {object} service.PreviewResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/preview [post]
func (s *Server) previewOrder(c *gin.Context) {
	var req previewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El pedido debe incluir al menos un item valido."})
		return
	}
	resp, err := s.orders.Preview(c.Request.Context(), req.Items)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Place an order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.PlaceOrderRequest true "Order"
// @Success 201 {object} service.PlaceOrderResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders [post]
func (s *Server) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos del pedido invalidos: " + err.Error()})
		return
	}
	resp, err := s.orders.Create(c.Request.Context(), identityFrom(c).UserID, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary List my orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Failure 401 {object} map[string]string
// @Router /orders [get]
func (s *Server) myOrders(c *gin.Context) {
	out, err := s.orders.GetMyOrders(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Get an order's invoice
// @Description Assigns the sequential invoice number on first access.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} service.Invoice
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/invoice [get]
func (s *Server) getInvoice(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de pedido invalido."})
		return
	}
	id := identityFrom(c)
	inv, err := s.invoices.GetInvoice(c.Request.Context(), orderID, id.UserID, id.IsStaff())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// @Summary Update order status
// @Tags orders
// @Accept json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param input body updateStatusReq true "New status"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/status [patch]
func (s *Server) updateOrderStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de pedido invalido."})
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Debes enviar el nuevo estado."})
		return
	}
	if err := s.orders.UpdateStatus(c.Request.Context(), orderID, req.Status); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// reservation handlers

// @Summary Create a reservation
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.CreateReservationRequest true "Reservation"
// @Success 201 {object} domain.Reservation
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations [post]
func (s *Server) createReservation(c *gin.Context) {
	var req service.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de la reserva invalidos: " + err.Error()})
		return
	}
	res, err := s.reservations.Create(c.Request.Context(), identityFrom(c).UserID, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// @Summary List my reservations
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Reservation
// @Router /reservations/my [get]
func (s *Server) myReservations(c *gin.Context) {
	out, err := s.reservations.GetMyReservations(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary List all reservations
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Reservation
// @Failure 403 {object} map[string]string
// @Router /reservations [get]
func (s *Server) listReservations(c *gin.Context) {
	out, err := s.reservations.GetAll(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Update reservation status
// @Tags reservations
// @Accept json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param input body updateStatusReq true "New status"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{id}/status [patch]
func (s *Server) updateReservationStatus(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de reserva invalido."})
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Debes enviar el nuevo estado."})
		return
	}
	if err := s.reservations.UpdateStatus(c.Request.Context(), reservationID, req.Status); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// catalog & storefront handlers

// @Summary List catalog products
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	out, err := s.catalog.ListProducts(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Storefront display settings
// @Tags storefront
// @Produce json
// @Success 200 {object} storefront.Settings
// @Router /storefront/settings [get]
func (s *Server) getStorefrontSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.GetSettings(c.Request.Context()))
}
