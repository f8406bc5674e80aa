package handler

import (
	"context"
	"iter"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/application/inventory"
	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/mystock/warehouse/internal/interfaces/http/dto"
)

// InventoryService is the part of the inventory engine the HTTP API drives
type InventoryService interface {
	AddProduct(ctx context.Context, cmd inventory.AddProductCommand) (catalog.Product, error)
	Receive(ctx context.Context, cmd inventory.StockMovementCommand) (*inventory.MovementResult, error)
	Issue(ctx context.Context, cmd inventory.StockMovementCommand) (*inventory.MovementResult, error)
	ReconcileAudit(ctx context.Context, cmd inventory.AuditCommand) (catalog.Product, error)
	ReconcileCount(ctx context.Context, cmds []inventory.AuditCommand) ([]catalog.Product, error)
	RemoveProduct(ctx context.Context, id uuid.UUID) error
	Product(id uuid.UUID) (catalog.Product, error)
	Products() iter.Seq[catalog.Product]
	ProductTransactions(id uuid.UUID) []ledger.Transaction
	RecentTransactions(n int) []ledger.Transaction
	TransactionCount() int
}

var _ InventoryService = (*inventory.Engine)(nil)

// InventoryHandler serves products, stock movements, audits and the ledger
type InventoryHandler struct {
	BaseHandler
	service InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// RegisterRoutes registers the inventory routes
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	products.GET("", h.ListProducts)
	products.POST("", h.CreateProduct)
	products.GET("/:id", h.GetProduct)
	products.DELETE("/:id", h.RemoveProduct)
	products.POST("/:id/receive", h.Receive)
	products.POST("/:id/issue", h.Issue)
	products.PUT("/:id/audit", h.Audit)
	products.GET("/:id/transactions", h.ProductTransactions)

	rg.POST("/audits", h.BatchAudit)
	rg.GET("/transactions", h.ListTransactions)
}

// ListProducts godoc
// GET /products
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	products := slices.Collect(h.service.Products())
	h.List(c, dto.NewProductListResponse(products), int64(len(products)), 0)
}

// CreateProduct godoc
// POST /products
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	p, err := h.service.AddProduct(c.Request.Context(), inventory.AddProductCommand{
		Name:         req.Name,
		Category:     req.Category,
		UnitPrice:    *req.UnitPrice,
		InitialStock: req.InitialStock,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewProductResponse(p))
}

// GetProduct godoc
// GET /products/:id
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Product(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewProductResponse(p))
}

// RemoveProduct godoc
// DELETE /products/:id
func (h *InventoryHandler) RemoveProduct(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.RemoveProduct(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Receive godoc
// POST /products/:id/receive
func (h *InventoryHandler) Receive(c *gin.Context) {
	h.move(c, h.service.Receive)
}

// Issue godoc
// POST /products/:id/issue
func (h *InventoryHandler) Issue(c *gin.Context) {
	h.move(c, h.service.Issue)
}

func (h *InventoryHandler) move(c *gin.Context, apply func(context.Context, inventory.StockMovementCommand) (*inventory.MovementResult, error)) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := apply(c.Request.Context(), inventory.StockMovementCommand{
		ProductID: id,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MovementResponse{
		Product:     dto.NewProductResponse(result.Product),
		Transaction: dto.NewTransactionResponse(result.Transaction),
	})
}

// Audit godoc
// PUT /products/:id/audit
func (h *InventoryHandler) Audit(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	p, err := h.service.ReconcileAudit(c.Request.Context(), inventory.AuditCommand{
		ProductID:    id,
		CountedStock: *req.CountedStock,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewProductResponse(p))
}

// BatchAudit godoc
// POST /audits
func (h *InventoryHandler) BatchAudit(c *gin.Context) {
	var req dto.BatchAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	cmds := make([]inventory.AuditCommand, 0, len(req.Counts))
	for _, line := range req.Counts {
		cmds = append(cmds, inventory.AuditCommand{
			ProductID:    uuid.MustParse(line.ProductID),
			CountedStock: *line.CountedStock,
		})
	}

	products, err := h.service.ReconcileCount(c.Request.Context(), cmds)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, dto.NewProductListResponse(products), int64(len(products)), 0)
}

// ListTransactions godoc
// GET /transactions?limit=&product_id=
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	var q dto.LimitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}

	if q.ProductID != "" {
		h.listProductTransactions(c, uuid.MustParse(q.ProductID), q.Limit)
		return
	}

	total := h.service.TransactionCount()
	limit := q.Limit
	if limit == 0 {
		limit = total
	}
	h.List(c, dto.NewTransactionListResponse(h.service.RecentTransactions(limit)), int64(total), q.Limit)
}

// ProductTransactions godoc
// GET /products/:id/transactions?limit=
func (h *InventoryHandler) ProductTransactions(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var q dto.LimitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}
	h.listProductTransactions(c, id, q.Limit)
}

func (h *InventoryHandler) listProductTransactions(c *gin.Context, id uuid.UUID, limit int) {
	txs := h.service.ProductTransactions(id)
	total := len(txs)
	if limit > 0 && limit < total {
		txs = txs[:limit]
	}
	h.List(c, dto.NewTransactionListResponse(txs), int64(total), limit)
}
