// Package docs registers the lekha OpenAPI description with swag, which
// http-swagger serves at /swagger/doc.json. Regenerate with
// `swag init -g cmd/lekha/main.go` after changing handler annotations.
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
        "/v1/capabilities": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Describe the deployment",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.Capabilities"}}
                }
            }
        },
        "/v1/detect": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Detect the input language",
                "parameters": [
                    {"description": "Text to inspect", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.DetectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.DetectResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Generate letters",
                "parameters": [
                    {"description": "Generation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.GenerateResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/transform": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Transform text server-side",
                "parameters": [
                    {"description": "Transform request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.TransformRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.TransformResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/sessions": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Create a session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/session.Snapshot"}}
                }
            }
        },
        "/v1/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get a session",
                "parameters": [{"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Snapshot"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["sessions"],
                "summary": "Delete a session",
                "parameters": [{"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/sessions/{id}/capture/start": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Start speech capture",
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true},
                    {"description": "Optional BCP-47 language hint", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/http.CaptureStartRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.CaptureResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Speech capture unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/sessions/{id}/capture/stop": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Stop speech capture",
                "parameters": [{"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.CaptureResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/sessions/{id}/capture/result": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Report a recognised transcript",
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true},
                    {"description": "Recognised text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CaptureResultRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/sessions/{id}/capture/error": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Report a recogniser error",
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true},
                    {"description": "Error reported by the recogniser", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CaptureErrorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/sessions/{id}/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Generate letters for a session",
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true},
                    {"description": "Generation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.GenerateResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Generation already in progress", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/sessions/{id}/view": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Select the visible letters",
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true},
                    {"description": "te, en or both", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ViewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/sessions/{id}/letters/{lang}": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["sessions"],
                "summary": "Get a letter as plain text",
                "parameters": [
                    {"type": "string", "description": "Session id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "te or en", "name": "lang", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Letter text", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.CaptureErrorRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {"reason": {"type": "string", "maxLength": 200}}
        },
        "http.CaptureResponse": {
            "type": "object",
            "properties": {
                "changed": {"type": "boolean"},
                "session": {"$ref": "#/definitions/session.Snapshot"}
            }
        },
        "http.CaptureResultRequest": {
            "type": "object",
            "required": ["transcript"],
            "properties": {"transcript": {"type": "string"}}
        },
        "http.CaptureStartRequest": {
            "type": "object",
            "properties": {"language_hint": {"type": "string", "maxLength": 35}}
        },
        "http.DetectRequest": {
            "type": "object",
            "properties": {"text": {"type": "string"}}
        },
        "http.DetectResponse": {
            "type": "object",
            "properties": {"language": {"type": "string", "enum": ["te", "en"]}}
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "http.ViewRequest": {
            "type": "object",
            "required": ["view"],
            "properties": {"view": {"type": "string", "enum": ["te", "en", "both"]}}
        },
        "message.Capabilities": {
            "type": "object",
            "properties": {
                "speech": {"type": "boolean"},
                "speech_language": {"type": "string"},
                "remote_translation": {"type": "boolean"},
                "languages": {"type": "array", "items": {"type": "string"}},
                "categories": {"type": "array", "items": {"type": "string"}}
            }
        },
        "message.ComposedLetter": {
            "type": "object",
            "properties": {
                "language": {"type": "string", "enum": ["te", "en"]},
                "category": {"type": "string"},
                "subject": {"type": "string"},
                "text": {"type": "string"},
                "transform_source": {"type": "string", "enum": ["identity", "remote", "fallback", "passthrough"]},
                "degraded": {"type": "boolean"}
            }
        },
        "message.GenerateRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "output": {"type": "string", "enum": ["te", "en", "both"]},
                "category": {"type": "string", "maxLength": 64},
                "mode": {"type": "string", "enum": ["translate", "expand"]},
                "recipient": {"$ref": "#/definitions/message.RecipientMetadata"}
            }
        },
        "message.GenerateResult": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "detected_language": {"type": "string", "enum": ["te", "en"]},
                "letters": {"type": "array", "items": {"$ref": "#/definitions/message.ComposedLetter"}}
            }
        },
        "message.RecipientMetadata": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "maxLength": 200},
                "honorific": {"type": "string", "enum": ["garu", "sir", "none"]},
                "location": {"type": "string", "maxLength": 200}
            }
        },
        "message.TransformRequest": {
            "type": "object",
            "required": ["text", "target_language"],
            "properties": {
                "text": {"type": "string"},
                "source_language": {"type": "string", "enum": ["te", "en"]},
                "target_language": {"type": "string", "enum": ["te", "en"]},
                "mode": {"type": "string", "enum": ["identity", "translate", "expand"]}
            }
        },
        "message.TransformResult": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "source": {"type": "string", "enum": ["identity", "remote", "fallback", "passthrough"]},
                "degraded": {"type": "boolean"},
                "degraded_reason": {"type": "string"}
            }
        },
        "session.Snapshot": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "state": {"type": "string", "enum": ["idle", "listening"]},
                "status": {"type": "string"},
                "language_hint": {"type": "string"},
                "transcript": {"type": "string"},
                "view": {"type": "string", "enum": ["te", "en", "both"]},
                "generating": {"type": "boolean"},
                "result": {"$ref": "#/definitions/message.GenerateResult"},
                "last_error": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "lekha API",
	Description:      "Bilingual (Telugu/English) formal letter generation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
