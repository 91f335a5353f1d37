// Package docs holds the swagger document registered at startup.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/api/stocks": {
            "get": {
                "tags": ["stocks"],
                "summary": "List tracked stocks",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["stocks"],
                "summary": "Track a new stock and kick off its first sync",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/stocks/{symbol}": {
            "get": {
                "tags": ["stocks"],
                "summary": "Get one stock by symbol",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["stocks"],
                "summary": "Stop tracking a stock (soft deactivate)",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/stocks/{symbol}/rating": {
            "get": {
                "tags": ["ratings"],
                "summary": "Current rating for a stock",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/stocks/{symbol}/ratings": {
            "get": {
                "tags": ["ratings"],
                "summary": "Rating history for a stock",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/stocks/{symbol}/posts": {
            "get": {
                "tags": ["posts"],
                "summary": "Social posts mentioning a stock",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/experts": {
            "get": {
                "tags": ["experts"],
                "summary": "List experts",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["experts"],
                "summary": "Register an expert",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/experts/{id}/ratings": {
            "post": {
                "tags": ["experts"],
                "summary": "Record an expert's rating for a stock",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/sync": {
            "post": {
                "tags": ["sync"],
                "summary": "Trigger a full sync pass over all active stocks",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/api/sync/{symbol}": {
            "post": {
                "tags": ["sync"],
                "summary": "Sync one symbol and return the step-by-step result",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/sync/state": {
            "get": {
                "tags": ["sync"],
                "summary": "Per-symbol sync state, including the concurrency guard",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/readyz": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "RottenStocks API",
	Description:      "Dual expert/popular stock sentiment ratings from market and social data.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
