package controllers

import (
	"github.com/gofiber/fiber/v2"
)

func (c *SearchController) SearchDeliveriesController(ctx *fiber.Ctx) error {
	query := ctx.Query("q")
	supplierID := ctx.Query("supplier_id")
	contractorID := ctx.Query("contractor_id")
	vehicleNumber := ctx.Query("vehicle_number")

	results, err := c.repo.SearchDeliveries(query, supplierID, contractorID, vehicleNumber)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed",
		})
	}

	var matches []interface{}
	for _, hit := range results.Hits {
		doc, err := c.repo.GetDeliveryDocument(hit.ID)
		if err != nil {
			continue
		}
		matches = append(matches, doc)
	}

	return ctx.JSON(fiber.Map{
		"results": matches,
		"total":   results.Total,
	})
}
