// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/register": {
            "post": {
                "description": "Registers a new standard user. The password hash is never returned.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "User Registration",
                "parameters": [
                    {
                        "description": "User registration details",
                        "name": "registerBody",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.RegisterRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "User created successfully", "schema": {"$ref": "#/definitions/auth.User"}},
                    "400": {"description": "Bad Request - Invalid input or missing fields", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "409": {"description": "Conflict - Username already exists", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "description": "Logs in an existing user and returns a bearer token valid for 24 hours.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "User Login",
                "parameters": [
                    {
                        "description": "User login credentials",
                        "name": "loginBody",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/auth.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"$ref": "#/definitions/auth.LoginResponse"}},
                    "400": {"description": "Bad Request - Invalid input or missing fields", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "401": {"description": "Unauthorized - Invalid credentials", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "description": "Liveness probe.",
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Service status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.StatusResponse"}}
                }
            }
        },
        "/operations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Lists the caller's operations, oldest first.",
                "produces": ["application/json"],
                "tags": ["Operations"],
                "summary": "List operations",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of operations to return", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/operations.ListResponse"}},
                    "400": {"description": "Bad Request - Invalid limit", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Stores an arbitrary JSON payload in the caller's ledger.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Operations"],
                "summary": "Create an operation",
                "parameters": [
                    {"description": "Operation payload", "name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/operations.Operation"}},
                    "400": {"description": "Bad Request - Missing or malformed payload", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/operations/stream": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Server-Sent Events stream of the caller's operations as they are created.",
                "produces": ["text/event-stream"],
                "tags": ["Operations"],
                "summary": "Stream new operations",
                "responses": {
                    "200": {"description": "event stream", "schema": {"type": "string"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the authenticated account and a summary of its operations.",
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Get current user's profile",
                "responses": {
                    "200": {"description": "Successfully retrieved user profile", "schema": {"$ref": "#/definitions/users.ProfileResponse"}},
                    "401": {"description": "Unauthorized - Invalid or missing token", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/admin/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Lists every registered account. Requires the admin role.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List all users",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.UserListResponse"}},
                    "401": {"description": "Unauthorized - Invalid or missing token", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "403": {"description": "Forbidden - Admin role required", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "apperror.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "A description of the error"}
            }
        },
        "auth.RegisterRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string", "example": "alice"},
                "password": {"type": "string", "example": "secret1"}
            }
        },
        "auth.LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string", "example": "alice"},
                "password": {"type": "string", "example": "secret1"}
            }
        },
        "auth.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "token_type": {"type": "string", "example": "Bearer"},
                "expires_at": {"type": "string"},
                "user": {"$ref": "#/definitions/auth.User"}
            }
        },
        "auth.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "role": {"type": "string", "enum": ["standard", "admin"]},
                "created_at": {"type": "string"}
            }
        },
        "operations.Operation": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "owner_id": {"type": "integer"},
                "operation_type": {"type": "string"},
                "payload": {"type": "object"},
                "status": {"type": "string", "example": "pending"},
                "created_at": {"type": "string"}
            }
        },
        "operations.ListResponse": {
            "type": "object",
            "properties": {
                "operations": {"type": "array", "items": {"$ref": "#/definitions/operations.Operation"}},
                "count": {"type": "integer"}
            }
        },
        "operations.Stats": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "first_created_at": {"type": "string"},
                "last_created_at": {"type": "string"},
                "recent_count": {"type": "integer"}
            }
        },
        "server.StatusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "active"},
                "timestamp": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "users.ProfileResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/auth.User"},
                "token_role": {"type": "string"},
                "stats": {"$ref": "#/definitions/operations.Stats"}
            }
        },
        "users.UserListResponse": {
            "type": "object",
            "properties": {
                "users": {"type": "array", "items": {"$ref": "#/definitions/auth.User"}},
                "count": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type 'Bearer YOUR_JWT_TOKEN' to authorize",
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
	Title:            "Opledger API",
	Description:      "Authenticated per-user operation ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
