package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rosesandhello/facescrape/app/category"
	"github.com/rosesandhello/facescrape/app/database"
	"github.com/rosesandhello/facescrape/app/tasks"
)

const defaultListLimit = 100

func NewHandler(configCache *category.ConfigCache, oppRepo database.OpportunityRepository,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		oppRepo:     oppRepo,
		configCache: configCache,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if counts, err := h.oppRepo.GetStatusCounts(); err == nil {
		total := 0
		for _, n := range counts {
			total += n
		}
		health["opportunities"] = total
	}

	health["loaded_watches"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	counts, err := h.oppRepo.GetStatusCounts()
	if err != nil {
		slog.Error("Database error", "operation", "get_status_counts", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"opportunities": gin.H{
			"active":  counts[database.StatusActive],
			"sold":    counts[database.StatusSold],
			"stale":   counts[database.StatusStale],
			"removed": counts[database.StatusRemoved],
		},
		"watches": h.configCache.GetConfigCount(),
	})
}

func (h *Handler) ListOpportunities(c *gin.Context) {
	status := c.DefaultQuery("status", database.StatusActive)
	if status == "all" {
		status = ""
	}

	limit := defaultListLimit
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	opportunities, err := h.oppRepo.GetOpportunities(status, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_opportunities", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	results := make([]map[string]interface{}, 0, len(opportunities))
	for i := range opportunities {
		results = append(results, opportunityJSON(&opportunities[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"count":         len(results),
		"opportunities": results,
	})
}

func (h *Handler) GetOpportunity(c *gin.Context) {
	opp, ok := h.lookupOpportunity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, opportunityJSON(opp))
}

func (h *Handler) GetOpportunityHistory(c *gin.Context) {
	opp, ok := h.lookupOpportunity(c)
	if !ok {
		return
	}

	history, err := h.oppRepo.GetPriceHistory(opp.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_price_history", "listing", opp.Key(), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	points := make([]map[string]interface{}, 0, len(history))
	for _, p := range history {
		points = append(points, map[string]interface{}{
			"price":           p.Price,
			"reference_price": p.ReferencePrice,
			"profit":          p.Profit,
			"recorded_at":     p.RecordedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"listing": opp.Key(),
		"count":   len(points),
		"history": points,
	})
}

func (h *Handler) TriggerScan(c *gin.Context) {
	if err := h.scheduler.TriggerScan(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "scan enqueued"})
}

func (h *Handler) TriggerRecheck(c *gin.Context) {
	if err := h.scheduler.TriggerRecheck(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "recheck enqueued"})
}

func (h *Handler) lookupOpportunity(c *gin.Context) (*database.Opportunity, bool) {
	source := c.Param("source")
	listingID := c.Param("listing_id")

	opp, err := h.oppRepo.GetByKey(source, listingID)
	if err != nil {
		slog.Error("Database error", "operation", "get_by_key", "source", source, "listing_id", listingID, "error", err)
		c.Status(http.StatusInternalServerError)
		return nil, false
	}
	if opp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "opportunity not found"})
		return nil, false
	}
	return opp, true
}

func opportunityJSON(opp *database.Opportunity) map[string]interface{} {
	return map[string]interface{}{
		"source":           opp.Source,
		"listing_id":       opp.ListingID,
		"watch":            opp.WatchName,
		"title":            opp.Title,
		"url":              opp.URL,
		"price":            opp.Price,
		"reference_price":  opp.ReferencePrice,
		"pickup_cost":      opp.PickupCost,
		"profit":           opp.Profit,
		"product_name":     opp.ProductName,
		"product_category": opp.ProductCategory,
		"product_brand":    opp.ProductBrand,
		"product_model":    opp.ProductModel,
		"identify_tier":    opp.IdentifyTier,
		"status":           opp.Status,
		"first_seen":       opp.FirstSeen.Format(time.RFC3339),
		"last_checked":     opp.LastChecked.Format(time.RFC3339),
	}
}
