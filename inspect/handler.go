package inspect

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/depkit/di"
	"github.com/kbukum/depkit/errors"
	"github.com/kbukum/depkit/sse"
	"github.com/kbukum/depkit/validation"
)

// ListResponse is the body of GET /dependencies.
type ListResponse struct {
	Entries []di.EntryInfo `json:"entries"`
	Count   int            `json:"count"`
}

// Register mounts the inspection routes on group. source is called on every
// request so a promoted shared registry is picked up.
func Register(group gin.IRouter, source func() *di.Registry) {
	h := &handler{source: source}
	group.GET("/dependencies", h.list)
	group.GET("/dependencies/*key", h.get)
}

// RegisterEvents mounts GET /events, a Server-Sent Events stream of the
// changes published to hub. The optional filter query is a glob on the
// feature name.
func RegisterEvents(group gin.IRouter, hub *sse.Hub) {
	group.GET("/events", func(c *gin.Context) {
		filter := c.DefaultQuery("filter", "*")
		if _, err := path.Match(filter, ""); err != nil {
			respondWithError(c, errors.InvalidInput("filter", err.Error()))
			return
		}
		sse.ServeSSE(hub, c.Writer, c.Request, uuid.NewString(), filter)
	})
}

type handler struct {
	source func() *di.Registry
}

func (h *handler) list(c *gin.Context) {
	feature := c.Query("feature")
	if appErr := validation.New().Excludes("feature", feature, di.KeySeparator).Validate(); appErr != nil {
		respondWithError(c, appErr)
		return
	}

	entries := h.source().Entries()
	if feature != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Name == feature {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if entries == nil {
		entries = []di.EntryInfo{}
	}
	c.JSON(http.StatusOK, ListResponse{Entries: entries, Count: len(entries)})
}

func (h *handler) get(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if _, err := di.ParseKey(key); err != nil {
		respondWithError(c, err)
		return
	}

	entry, ok := h.source().Entry(key)
	if !ok {
		respondWithError(c, errors.NotFound("dependency", key))
		return
	}
	c.JSON(http.StatusOK, entry)
}

// respondWithError writes err as an errors.ErrorResponse with its status.
func respondWithError(c *gin.Context, err error) {
	appErr := errors.FromError(err)
	c.AbortWithStatusJSON(errors.StatusOf(appErr), appErr.ToResponse())
}
