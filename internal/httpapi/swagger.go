//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// docTemplate is replaced by `swag init -g cmd/findd/docs.go` output when
// the docs are regenerated; it describes the routes registered in NewMux.
const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/search": {"post": {"tags": ["search"], "summary": "Run a voice search command", "responses": {"200": {"description": "OK"}}}},
        "/history": {"get": {"tags": ["search"], "summary": "Recent voice searches", "responses": {"200": {"description": "OK"}}}},
        "/status": {"get": {"tags": ["engine"], "summary": "Engine and service status", "responses": {"200": {"description": "OK"}}}},
        "/instances": {"get": {"tags": ["engine"], "summary": "Running engine processes", "responses": {"200": {"description": "OK"}}}},
        "/events": {"get": {"tags": ["engine"], "summary": "Recent engine lifecycle events", "responses": {"200": {"description": "OK"}}}},
        "/engine/ensure": {"post": {"tags": ["engine"], "summary": "Make the engine answer queries", "responses": {"200": {"description": "OK"}}}},
        "/engine/block-autostart": {"post": {"tags": ["engine"], "summary": "Suppress engine starts", "responses": {"200": {"description": "OK"}}}},
        "/engine/shutdown": {"post": {"tags": ["engine"], "summary": "Stop engine instances started by findd", "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "findd API",
	Description:      "Voice-driven file search on top of the Everything engine.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
