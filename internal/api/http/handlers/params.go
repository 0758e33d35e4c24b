package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// OperatorHeader identifies the dashboard operator for audit fields.
const OperatorHeader = "X-Operator-ID"

func operatorID(c *fiber.Ctx) *string {
	if v := strings.TrimSpace(c.Get(OperatorHeader)); v != "" {
		return &v
	}
	return nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return &v
	}
	return nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

// pagination maps page/page_size to limit/offset.
func pagination(c *fiber.Ctx, defaultSize int) (limit, offset int) {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "page_size", defaultSize)
	if size > 200 {
		size = 200
	}
	return size, (page - 1) * size
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
