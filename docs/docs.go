// Package docs registers the OpenAPI document for the back-office API.
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
        "/admin/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Admin login",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.CredentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/credentials": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Change admin credentials",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.CredentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/data/{key}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["content"],
                "summary": "Read content",
                "parameters": [{"type": "string", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["content"],
                "summary": "Write content",
                "parameters": [{"type": "string", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/quotes": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["quotes"],
                "summary": "List quotes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.QuoteListResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["quotes"],
                "summary": "Submit a quote request",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/services.SubmitRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SubmitQuoteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["quotes"],
                "summary": "Update quote status",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.StatusUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusUpdateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/track/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["quotes"],
                "summary": "Track an order",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.TrackResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        }
    },
    "definitions": {
        "handlers.CredentialsRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "message": {"type": "string"}, "detail": {"type": "string"}}
        },
        "handlers.SuccessResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}}
        },
        "handlers.LoginResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "token": {"type": "string"}}
        },
        "handlers.SubmitQuoteResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "id": {"type": "string"}}
        },
        "handlers.StatusUpdateRequest": {
            "type": "object",
            "properties": {"quoteId": {"type": "string"}, "status": {"type": "string", "enum": ["New", "Contacted", "In Progress", "Completed", "Cancelled"]}}
        },
        "handlers.StatusUpdateResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "quoteId": {"type": "string"}, "status": {"type": "string"}}
        },
        "handlers.QuoteListResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "quotes": {"type": "array", "items": {"$ref": "#/definitions/models.Quote"}}}
        },
        "handlers.TrackResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "quote": {"$ref": "#/definitions/models.PublicQuote"}}
        },
        "models.Contact": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}, "email": {"type": "string"}, "phone": {"type": "string"},
                "company": {"type": "string"}, "message": {"type": "string"}
            }
        },
        "models.Quote": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "submissionDate": {"type": "string", "format": "date-time"},
                "status": {"type": "string"},
                "contact": {"$ref": "#/definitions/models.Contact"},
                "itemSummary": {"type": "string"},
                "colorSummary": {"type": "string"},
                "totalQuantity": {"type": "integer"},
                "totalAmount": {"type": "number"},
                "hasLogoAttachment": {"type": "boolean"},
                "hasDesignAttachment": {"type": "boolean"}
            }
        },
        "models.PublicQuote": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "submissionDate": {"type": "string", "format": "date-time"},
                "status": {"type": "string"},
                "customerName": {"type": "string"},
                "items": {"type": "array", "items": {"type": "string"}},
                "currentStep": {"type": "integer"}
            }
        },
        "services.LineItem": {
            "type": "object",
            "properties": {
                "product": {"type": "object", "properties": {"name": {"type": "string"}}},
                "sizeQuantities": {"type": "object", "additionalProperties": {"type": "integer"}},
                "unitPrice": {"type": "number"},
                "selectedColor": {"type": "object", "properties": {"name": {"type": "string"}}},
                "logoImage": {"type": "string"},
                "designImage": {"type": "string"}
            }
        },
        "services.SubmitRequest": {
            "type": "object",
            "properties": {
                "contact": {"$ref": "#/definitions/models.Contact"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/services.LineItem"}},
                "type": {"type": "string", "enum": ["quote", "order"]}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Apparel Back-Office API",
	Description:      "Admin sessions, quote ledger and public order tracking for the apparel storefront",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
