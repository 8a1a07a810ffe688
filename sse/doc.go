// Package sse streams registry events to HTTP clients as Server-Sent Events.
//
// A Hub fans messages out to connected clients. Feed subscribes a hub to a
// registry so every committed change is published under its feature name,
// and ServeSSE holds one client connection open until it goes away.
//
//	hub := sse.NewHub()
//	go hub.Run()
//	sse.Feed(registry, hub)
//	router.GET("/events", func(c *gin.Context) {
//	    sse.ServeSSE(hub, c.Writer, c.Request, uuid.NewString(), c.DefaultQuery("filter", "*"))
//	})
package sse
