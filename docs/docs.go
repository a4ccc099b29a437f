// Package docs registers the OpenAPI description served under /swagger/.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.healthResponse"}}
                }
            }
        },
        "/orders": {
            "get": {
                "produces": ["application/json"],
                "summary": "List orders",
                "parameters": [
                    {"enum": ["pending", "preparing", "ready", "delivered"], "type": "string", "description": "Filter by status", "name": "status", "in": "query"},
                    {"minimum": 1, "type": "integer", "description": "Filter by table number", "name": "table_number", "in": "query"},
                    {"type": "string", "description": "Case-insensitive substring of the customer name", "name": "customer_name", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/order.Order"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Create order",
                "parameters": [
                    {"description": "Order", "name": "order", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.Create"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/order.Order"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get order",
                "parameters": [
                    {"type": "integer", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "summary": "Delete order",
                "parameters": [
                    {"type": "integer", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.detailResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/orders/{id}/status": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update order status",
                "parameters": [
                    {"type": "integer", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "New status", "name": "update", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.StatusUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.detailResponse": {
            "type": "object",
            "properties": {"detail": {"type": "string"}}
        },
        "api.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "field": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "api.healthResponse": {
            "type": "object",
            "properties": {
                "orders": {"type": "integer"},
                "status": {"type": "string"}
            }
        },
        "order.Create": {
            "type": "object",
            "required": ["customer_name", "items", "table_number"],
            "properties": {
                "customer_name": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/order.Item"}},
                "table_number": {"type": "integer", "minimum": 1}
            }
        },
        "order.Item": {
            "type": "object",
            "properties": {
                "dish_name": {"type": "string", "minLength": 1},
                "price": {"type": "number", "exclusiveMinimum": true, "minimum": 0},
                "quantity": {"type": "integer", "exclusiveMinimum": true, "minimum": 0}
            }
        },
        "order.Order": {
            "type": "object",
            "properties": {
                "customer_name": {"type": "string"},
                "id": {"type": "integer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/order.Item"}},
                "status": {"$ref": "#/definitions/order.Status"},
                "table_number": {"type": "integer"},
                "total_amount": {"type": "number"}
            }
        },
        "order.Status": {
            "type": "string",
            "enum": ["pending", "preparing", "ready", "delivered"],
            "x-enum-varnames": ["StatusPending", "StatusPreparing", "StatusReady", "StatusDelivered"]
        },
        "order.StatusUpdate": {
            "type": "object",
            "properties": {"status": {"$ref": "#/definitions/order.Status"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Restaurant Orders API",
	Description:      "API for managing restaurant table orders",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
