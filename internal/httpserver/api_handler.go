package httpserver

import (
	"errors"
	"log"
	"net/http"

	"commerce-pricing/internal/domain"
	"commerce-pricing/internal/pricing"
	authsvc "commerce-pricing/internal/service/auth"
	"github.com/gin-gonic/gin"
)

type apiHandler struct {
	catalog  pricing.Catalog
	checkout checkoutService
	auth     authService
	logger   *log.Logger
}

type createCheckoutRequest struct {
	Price string `json:"price" binding:"required"`
}

type tokenRequest struct {
	GrantType string `form:"grant_type" binding:"required,eq=password"`
	Username  string `form:"username" binding:"required"`
	Password  string `form:"password" binding:"required"`
}

func (h *apiHandler) products(c *gin.Context) {
	v := pricing.New(h.catalog, nil, nil, h.logger)
	defer v.Close()

	if err := v.Load(c.Request.Context()); err != nil {
		writeError(c, http.StatusBadGateway, err.Error())
		return
	}
	products := v.State().Products
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *apiHandler) createCheckoutSession(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "price required")
		return
	}
	auth := authFrom(c)
	sess, err := h.checkout.Create(c.Request.Context(), auth.User, req.Price)
	if err != nil {
		h.logger.Printf("api: create checkout session price=%s customer=%s error=%v", req.Price, auth.User.ID, err)
		writeError(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sess.ID})
}

func (h *apiHandler) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusBadRequest, "grant_type=password, username and password are required")
		return
	}
	customer, token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			writeError(c, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Printf("api: login error=%v", err)
		writeError(c, http.StatusInternalServerError, "login failed")
		return
	}

	ttl := h.auth.AccessTTLSeconds()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie, token, ttl, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   ttl,
		"customer_id":  customer.ID,
	})
}
