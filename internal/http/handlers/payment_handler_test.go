package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPaymentHandler_CreateAdvanceOrder_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/bookings/:id/payments/advance", handler.CreateAdvanceOrder)

	req, _ := http.NewRequest("POST", "/bookings/2b1f7fa3-1d3a-4f24-9402-1f1cf5f8cbb1/payments/advance", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_VerifyAdvance_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/bookings/:id/payments/advance/verify", handler.VerifyAdvance)

	body := strings.NewReader(`{"orderId":"order_1","paymentId":"pay_1","signature":"deadbeef"}`)
	req, _ := http.NewRequest("POST", "/bookings/2b1f7fa3-1d3a-4f24-9402-1f1cf5f8cbb1/payments/advance/verify", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_RequestRefund_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/bookings/:id/refund", handler.RequestRefund)

	req, _ := http.NewRequest("POST", "/bookings/2b1f7fa3-1d3a-4f24-9402-1f1cf5f8cbb1/refund", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_GetPayment_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.GET("/bookings/:id/payments", handler.GetPayment)

	req, _ := http.NewRequest("GET", "/bookings/2b1f7fa3-1d3a-4f24-9402-1f1cf5f8cbb1/payments", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
