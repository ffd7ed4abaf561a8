package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-table-orderflow/internal/menu"
)

func (a *api) listMenu(c *gin.Context) {
	items := menu.Filter(a.Catalog.List(), c.Query("category"), c.Query("q"), c.Query("veg") == "true")
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (a *api) getMenuItem(c *gin.Context) {
	it, err := a.Catalog.Get(c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}
