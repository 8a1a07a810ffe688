// Package inspect exposes the contents of a dependency registry over HTTP
// for debugging.
//
//	router := gin.New()
//	inspect.Register(router.Group("/debug"), di.Shared)
//	inspect.RegisterEvents(router.Group("/debug"), rt.Events)
//
// Routes:
//
//	GET /dependencies            cached entries, optionally ?feature=name
//	GET /dependencies/{key}      one entry by storage key
//	GET /events                  SSE stream of changes, optionally ?filter=glob
//
// Keys derived from source locations contain slashes; the key route takes
// the rest of the path.
package inspect
