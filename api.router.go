package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/jeamon/demo-libros/docs"
)

// MiddlewareMap contains middlwares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public func(httprouter.Handle) httprouter.Handle
	ops    func(httprouter.Handle) httprouter.Handle
}

// SetupRoutes injects book, docs and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.NotFound = api.NotFound()
	router.GlobalOPTIONS = api.Preflight()
	api.SetupBookRoutes(router, m)
	api.SetupDocsRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	return router
}

// SetupDocsRoutes serves the swagger ui and the generated openapi document.
func (api *APIHandler) SetupDocsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/api-docs/*any", m.public(api.OpsHandlerWrapper(httpswagger.Handler(httpswagger.URL("/api-docs/doc.json")))))
	return router
}

// Preflight answers cross-origin preflight requests.
func (api *APIHandler) Preflight() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.CORSMiddleware(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusNoContent)
		})(w, r, nil)
	})
}
