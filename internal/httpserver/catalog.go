package httpserver

import (
	"log"
	"net/http"
	"strconv"

	"storefront/internal/service/catalog"
	"github.com/gin-gonic/gin"
)

func listItemsHandler(svc *catalog.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.Query("page"))
		items, err := svc.List(c.Request.Context(), c.Query("category"), c.Query("q"), page)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
	}
}

func getItemHandler(svc *catalog.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := svc.Get(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func listCategoriesHandler(svc *catalog.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := svc.Categories(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": cats})
	}
}
