package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects book related the api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.POST("/libro", m.public(api.CreateBook))
	router.GET("/libro", m.public(api.GetAllBooks))
	router.GET("/libro/:id", m.public(api.GetOneBook))
	router.PUT("/libro/:id", m.public(api.UpdateBook))
	router.DELETE("/libro/:id", m.public(api.DeleteOneBook))
	return router
}
