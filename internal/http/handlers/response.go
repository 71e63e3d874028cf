// Package handlers provides the gateway's HTTP edge: the error boundary that
// renders every failure as a result envelope, and the admin endpoints.
//
// All bodies share one shape:
//
//	HTTP/1.1 200 OK
//	Content-Type: application/json; charset=utf-8
//	{ "code": "10002", "message": "network error, try later", "data": null }
//
// Handlers never write failures themselves. They call fail(), which leaves
// the error on the gin context for the boundary middleware to render.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gateway-errors/internal/result"
)

// ok writes data as a success envelope.
func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, result.Success(data))
}

// fail attaches err for the boundary and aborts the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
