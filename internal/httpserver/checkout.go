package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func createSnapshotHandler(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := callerIdentity(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, "missing credentials")
			return
		}
		snap, err := svc.Snapshot(c.Request.Context(), ident)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, snap)
	}
}

func getSnapshotHandler(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := svc.GetSnapshot(c.Request.Context(), c.Param("paymentRef"))
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
