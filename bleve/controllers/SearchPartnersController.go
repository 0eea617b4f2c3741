package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func (c *SearchController) SearchSuppliersController(ctx *fiber.Ctx) error {
	return c.searchPartners(ctx, "suppliers")
}

func (c *SearchController) SearchContractorsController(ctx *fiber.Ctx) error {
	return c.searchPartners(ctx, "contractors")
}

func (c *SearchController) searchPartners(ctx *fiber.Ctx, indexName string) error {
	query := ctx.Query("q")

	activeStr := ctx.Query("active")
	var active *bool
	if activeStr != "" {
		val, err := strconv.ParseBool(activeStr)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid 'active' value",
			})
		}
		active = &val
	}

	results, err := c.repo.SearchPartners(indexName, query, active)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed",
		})
	}

	var matches []interface{}
	for _, hit := range results.Hits {
		doc, err := c.repo.GetPartnerDocument(indexName, hit.ID)
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
