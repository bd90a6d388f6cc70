package main

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/MikeMC777/product-catalog/docs"
	"github.com/MikeMC777/product-catalog/internal/httpx"
	prod "github.com/MikeMC777/product-catalog/internal/product"
)

func newRouter(svc *prod.Service, log *slog.Logger) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/products", listProductsHandler(svc, log))
	r.GET("/products/:id", getProductHandler(svc, log))
	r.POST("/products", createProductHandler(svc, log))
	r.PUT("/products/:id", updateProductHandler(svc, log))
	r.DELETE("/products/:id", deleteProductHandler(svc, log))
	return r
}
