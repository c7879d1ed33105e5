// README: App-store redirect handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transporter/internal/modules/appstore"
)

func AppRedirect(c *gin.Context) {
	app, err := appstore.ParseApp(c.Param("app"))
	if err != nil {
		writeError(c, http.StatusNotFound, err.Error())
		return
	}
	url, err := appstore.StoreURL(app, c.Request.UserAgent())
	if err != nil {
		writeError(c, http.StatusNotFound, err.Error())
		return
	}
	c.Redirect(http.StatusFound, url)
}
