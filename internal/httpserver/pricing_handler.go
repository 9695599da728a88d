package httpserver

import (
	"log"
	"net/http"

	"commerce-pricing/internal/pricing"
	"github.com/gin-gonic/gin"
)

type pricingHandler struct {
	catalog       pricing.Catalog
	sessions      pricing.SessionCreator
	redirector    pricing.Redirector
	logger        *log.Logger
	defaultLocale string
}

type pricingPageData struct {
	Page   pricing.Page
	Alert  string
	Locale string
}

func (h *pricingHandler) newView() *pricing.View {
	return pricing.New(h.catalog, h.sessions, h.redirector, h.logger)
}

func (h *pricingHandler) show(c *gin.Context) {
	v := h.newView()
	defer v.Close()

	var alert string
	if err := v.Load(c.Request.Context()); err != nil {
		alert = err.Error()
	}
	h.render(c, http.StatusOK, v, alert)
}

func (h *pricingHandler) checkout(c *gin.Context) {
	v := h.newView()
	defer v.Close()

	if err := v.Load(c.Request.Context()); err != nil {
		h.render(c, http.StatusBadGateway, v, err.Error())
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		h.render(c, http.StatusBadRequest, v, "invalid form")
		return
	}

	res, err := v.Checkout(c.Request.Context(), c.Request.PostForm, authFrom(c))
	if err != nil {
		h.render(c, statusFor(err), v, err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, res.URL)
}

func (h *pricingHandler) render(c *gin.Context, status int, v *pricing.View, alert string) {
	locale := pricing.NegotiateLocale(c.GetHeader("Accept-Language"), h.defaultLocale)
	c.HTML(status, "pricing.html", pricingPageData{
		Page:   v.Page(authFrom(c), locale),
		Alert:  alert,
		Locale: locale,
	})
}
