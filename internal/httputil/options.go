package httputil

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// Allow answers an OPTIONS request with an empty response and the
// "allow" header listing OPTIONS and the verbs passed.
func Allow(c *gin.Context, verbs ...string) {
	c.Header("allow", strings.Join(append([]string{http.MethodOptions}, verbs...), ", "))
	c.Render(http.StatusNoContent, render.JSON{})
}

func OptionsGet(c *gin.Context) {
	Allow(c, http.MethodGet)
}

// OptionsPost is used for endpoints that only accept commands, e.g. allot.
func OptionsPost(c *gin.Context) {
	Allow(c, http.MethodPost)
}

func OptionsGetPost(c *gin.Context) {
	Allow(c, http.MethodGet, http.MethodPost)
}

// OptionsGetDelete is used for allotment lines, which are replaced by
// allotting again instead of being updated.
func OptionsGetDelete(c *gin.Context) {
	Allow(c, http.MethodGet, http.MethodDelete)
}

func OptionsGetPatchDelete(c *gin.Context) {
	Allow(c, http.MethodGet, http.MethodPatch, http.MethodDelete)
}
