package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	prod "github.com/MikeMC777/product-catalog/internal/product"
)

// HTTPError is the body of 404 and 500 responses.
// swagger:model
type HTTPError struct {
	Error   string `json:"error"   example:"Product not found"`
	Message string `json:"message" example:"The product with the specified ID does not exist"`
}

// ValidationResponse is the body of 422 responses.
// swagger:model
type ValidationResponse struct {
	Erro    string              `json:"erro"    example:"validation_error"`
	Message string              `json:"message" example:"There was a validation error"`
	Errors  map[string][]string `json:"errors"`
}

// ProductResponse wraps a single product.
// swagger:model
type ProductResponse struct {
	Data prod.Product `json:"data"`
}

// MessageResponse is the body of a successful delete.
// swagger:model
type MessageResponse struct {
	Message string `json:"message" example:"Product deleted successfully"`
}

var notFound = HTTPError{
	Error:   "Product not found",
	Message: "The product with the specified ID does not exist",
}

func writeError(c *gin.Context, log *slog.Logger, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, ValidationResponse{
			Erro:    "validation_error",
			Message: "There was a validation error",
			Errors:  ve.Errors,
		})
	case errors.Is(err, prod.ErrNotFound):
		c.JSON(http.StatusNotFound, notFound)
	default:
		_ = c.Error(err)
		log.ErrorContext(c.Request.Context(), "product request failed", "error", err)
		c.JSON(http.StatusInternalServerError, HTTPError{
			Error:   "internal_error",
			Message: "The request could not be completed",
		})
	}
}

// listProductsHandler godoc
// @Summary      List products
// @Description  Paginated, filterable listing. Results are cached until the next write.
// @Tags         products
// @Produce      json
// @Param        name             query  string  false  "substring of the name"
// @Param        description      query  string  false  "substring of the description"
// @Param        price            query  string  false  "substring of the price"
// @Param        stock            query  string  false  "substring of the stock"
// @Param        start            query  string  false  "created on or after this date (YYYY-MM-DD)"
// @Param        end              query  string  false  "created on or before this date (YYYY-MM-DD)"
// @Param        order_field      query  string  false  "id, name, price, stock or created_at"
// @Param        order_direction  query  string  false  "asc or desc"
// @Param        page             query  int     false  "page number"
// @Param        per_page         query  int     false  "page size (1-100)"
// @Success      200  {object}  prod.Page
// @Failure      500  {object}  HTTPError
// @Router       /products [get]
func listProductsHandler(svc *prod.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.List(c.Request.Context(), c.Request.URL.Query())
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// getProductHandler godoc
// @Summary  Show a product
// @Tags     products
// @Produce  json
// @Param    id   path      string  true  "product id"
// @Success  200  {object}  ProductResponse
// @Failure  404  {object}  HTTPError
// @Router   /products/{id} [get]
func getProductHandler(svc *prod.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, ProductResponse{Data: *p})
	}
}

// createProductHandler godoc
// @Summary  Create a product
// @Tags     products
// @Accept   json
// @Produce  json
// @Param    body  body      ProductRequest  true  "product"
// @Success  201   {object}  ProductResponse
// @Failure  422   {object}  ValidationResponse
// @Router   /products [post]
func createProductHandler(svc *prod.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, err := bindProduct(c)
		if err != nil {
			writeError(c, log, err)
			return
		}
		p, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, ProductResponse{Data: *p})
	}
}

// updateProductHandler godoc
// @Summary  Replace a product
// @Tags     products
// @Accept   json
// @Produce  json
// @Param    id    path      string          true  "product id"
// @Param    body  body      ProductRequest  true  "product"
// @Success  200   {object}  ProductResponse
// @Failure  404   {object}  HTTPError
// @Failure  422   {object}  ValidationResponse
// @Router   /products/{id} [put]
func updateProductHandler(svc *prod.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, err := bindProduct(c)
		if err != nil {
			writeError(c, log, err)
			return
		}
		p, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, ProductResponse{Data: *p})
	}
}

// deleteProductHandler godoc
// @Summary  Soft-delete a product
// @Tags     products
// @Produce  json
// @Param    id   path      string  true  "product id"
// @Success  200  {object}  MessageResponse
// @Failure  404  {object}  HTTPError
// @Router   /products/{id} [delete]
func deleteProductHandler(svc *prod.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, MessageResponse{Message: "Product deleted successfully"})
	}
}
