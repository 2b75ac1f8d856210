// Package docs registers the OpenAPI document of uftp-server with swag.
//
// The template mirrors the godoc annotations on the handlers in internal/server/handlers.
// Regenerate with: swag init -g cmd/uftp-server/main.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/shapeshifter/api/v3/message": {
            "post": {
                "description": "Other participants post their signed messages to this endpoint. A 200 response only means the message was accepted for processing.",
                "consumes": ["text/xml"],
                "produces": ["application/json"],
                "tags": ["UFTP"],
                "summary": "Receive a UFTP message",
                "parameters": [
                    {
                        "description": "SignedMessage XML",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "string"}
                    }
                ],
                "responses": {
                    "200": {"description": "Message accepted for processing"},
                    "400": {"description": "Malformed message, duplicate or reused message id", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "401": {"description": "Unknown sender or signature verification failed", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "413": {"description": "Message too large", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/v1/messages": {
            "post": {
                "description": "Submit an unsigned UFTP payload to be validated, signed and sent to its RecipientDomain.",
                "consumes": ["text/xml"],
                "produces": ["application/json"],
                "tags": ["UFTP"],
                "summary": "Send a UFTP message",
                "parameters": [
                    {
                        "description": "UFTP payload XML",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "string"}
                    },
                    {
                        "type": "string",
                        "description": "Role of the recipient (AGR, DSO or CRO)",
                        "name": "recipient_role",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "Message sent", "schema": {"$ref": "#/definitions/handlers.SubmitMessageResponse"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Message rejected by validation, not sent", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "502": {"description": "Recipient did not accept the message", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/v1/status": {
            "get": {
                "description": "Returns the participant this server acts as and the number of stored messages per direction (incoming, outgoing).",
                "produces": ["application/json"],
                "tags": ["UFTP"],
                "summary": "Get message counts",
                "responses": {
                    "200": {"description": "Status", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/.well-known/jwks.json": {
            "get": {
                "description": "Returns the JWK set of this participant.",
                "tags": ["Common"],
                "summary": "Get JWK set",
                "responses": {
                    "200": {"description": "JWK set", "schema": {"$ref": "#/definitions/handlers.JWKSResponse"}}
                }
            }
        },
        "/health/live": {
            "get": {
                "description": "Check if the HTTP service is alive and responding.",
                "produces": ["text/plain"],
                "tags": ["Common"],
                "summary": "Health (liveness) Check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "description": "Checks if the service is ready to accept traffic (includes database connectivity)",
                "produces": ["application/json"],
                "tags": ["Common"],
                "summary": "Readiness Check",
                "responses": {
                    "200": {"description": "status ready", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "status not ready", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/version": {
            "get": {
                "description": "Returns the version and build information for the service",
                "produces": ["application/json"],
                "tags": ["Common"],
                "summary": "Get version information",
                "responses": {
                    "200": {"description": "Version information", "schema": {"$ref": "#/definitions/handlers.VersionResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.JWKSResponse": {
            "type": "object",
            "properties": {
                "keys": {"type": "array", "items": {"type": "object", "additionalProperties": {}}}
            }
        },
        "handlers.StatusResponse": {
            "type": "object",
            "properties": {
                "messages": {"type": "object", "additionalProperties": {"type": "integer"}},
                "participant": {"type": "string", "example": "dso.example.com(DSO)"}
            }
        },
        "handlers.SubmitMessageResponse": {
            "type": "object",
            "properties": {
                "conversationId": {"type": "string", "example": "5d8b2b3a-6c38-4ad1-8b7e-0d6f1f7f2a10"},
                "messageId": {"type": "string", "example": "0b7c4b1e-8a3e-4d7e-9a43-3f2f1f0d9c11"},
                "messageType": {"type": "string", "example": "FlexRequest"},
                "recipient": {"type": "string", "example": "agr.example.com(AGR)"}
            }
        },
        "handlers.VersionResponse": {
            "type": "object",
            "properties": {
                "build_time": {"type": "string", "example": "2024-01-28T10:00:00Z"},
                "git_commit": {"type": "string", "example": "a1b2c3d"},
                "service": {"type": "string", "example": "uftp-server"},
                "version": {"type": "string", "example": "1.0.0"}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "errorCode": {"type": "string", "example": "duplicate_message"},
                "message": {"type": "string"},
                "requestId": {"type": "string"},
                "statusCode": {"type": "integer", "example": 400},
                "statusCodeText": {"type": "string", "example": "Bad Request"}
            }
        }
    },
    "tags": [
        {"description": "UFTP message endpoints", "name": "UFTP"},
        {"description": "Server API endpoints (jwks, health, readiness, version, etc.)", "name": "Common"}
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "",
	Host:             "",
	BasePath:         "",
	Schemes:          []string{},
	Title:            "uftp-server",
	Description:      "uftp-server receives and sends signed UFTP messages for one participant.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
