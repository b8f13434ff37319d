// Package docs holds the generated swagger registration for the trading
// service API. Regenerate with `swag init` after changing handler
// annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get recent runs",
                "parameters": [
                    {"type": "integer", "description": "Max runs to return (default 30)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Trigger an algorithm run",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/runs/{date}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get a run by date",
                "parameters": [
                    {"type": "string", "description": "Run date (YYYY-MM-DD)", "name": "date", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/signals": {
            "get": {
                "produces": ["application/json"],
                "tags": ["signals"],
                "summary": "Get signals for a date",
                "parameters": [
                    {"type": "string", "description": "Signal date (YYYY-MM-DD)", "name": "date", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/trades": {
            "get": {
                "produces": ["application/json"],
                "tags": ["trades"],
                "summary": "Get trades",
                "parameters": [
                    {"type": "string", "description": "Trade date (YYYY-MM-DD)", "name": "date", "in": "query"},
                    {"type": "integer", "description": "Max trades to return without a date (default 50)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/portfolio/positions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["portfolio"],
                "summary": "Get open positions",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/portfolio/snapshots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["portfolio"],
                "summary": "Get portfolio snapshots",
                "parameters": [
                    {"type": "integer", "description": "Max snapshots to return (default 30)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/portfolio/account": {
            "get": {
                "produces": ["application/json"],
                "tags": ["portfolio"],
                "summary": "Get the broker account",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Momentum Trader API",
	Description:      "Daily momentum trading algorithm service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
