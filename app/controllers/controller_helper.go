package controllers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// requestHeaders copies the fasthttp request headers into a net/http Header so
// provider verifiers stay transport-agnostic.
func requestHeaders(c *fiber.Ctx) http.Header {
	headers := make(http.Header)
	for key, values := range c.GetReqHeaders() {
		for _, v := range values {
			headers.Add(key, v)
		}
	}
	return headers
}
