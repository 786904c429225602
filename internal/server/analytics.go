package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetTopMerchant returns the merchant with the highest total successful
// transaction volume.
func (s *Server) GetTopMerchant(c *gin.Context) {
	result, err := s.analyticsSvc.TopMerchant(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMonthlyActiveMerchants returns distinct active merchants per UTC month.
func (s *Server) GetMonthlyActiveMerchants(c *gin.Context) {
	result, err := s.analyticsSvc.MonthlyActiveMerchants(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetProductAdoption returns distinct merchants per product, highest first.
func (s *Server) GetProductAdoption(c *gin.Context) {
	result, err := s.analyticsSvc.ProductAdoption(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetKYCFunnel returns distinct merchants per verification stage.
func (s *Server) GetKYCFunnel(c *gin.Context) {
	result, err := s.analyticsSvc.KYCFunnel(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetFailureRates returns the failure percentage per product, highest first.
func (s *Server) GetFailureRates(c *gin.Context) {
	result, err := s.analyticsSvc.FailureRates(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
