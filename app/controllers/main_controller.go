package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lwas/economy/internal/pkg/metrics/counter"
)

// HandleHealth is the liveness probe.
func HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("OK")
}

// HandleWebhookCounters exposes the operational webhook counters, including
// the storage-degradation counter monitoring should alert on.
func HandleWebhookCounters(c *fiber.Ctx) error {
	snapshot, err := counter.Snapshot()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "counters_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(snapshot)
}

// HandleSubscriptionLookup returns the current subscription for a customer
// key. Operator-facing, behind basic auth.
func HandleSubscriptionLookup(c *fiber.Ctx) error {
	key := c.Params("key")
	sub, ok := registry.Get(key)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	return c.Status(fiber.StatusOK).JSON(sub)
}
