package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA ADP Web",
        "description": "JSON endpoints of the school administration web application. Pages are server rendered and not listed here.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Health", "description": "Liveness and readiness probes"},
        {"name": "Messages", "description": "Inbox badge and read receipts"},
        {"name": "Students", "description": "Student dropdowns and photo uploads"},
        {"name": "Diagnostics", "description": "Cache, database and runtime statistics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Status"}}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness check",
                "description": "Pings the database",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Ready", "schema": {"$ref": "#/definitions/Status"}},
                    "503": {"description": "Database unreachable", "schema": {"$ref": "#/definitions/Status"}}
                }
            }
        },
        "/api/messages": {
            "get": {
                "tags": ["Messages"],
                "summary": "Recent inbox messages",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "unread", "in": "query", "type": "boolean", "description": "Only unread messages"},
                    {"name": "limit", "in": "query", "type": "integer", "description": "Maximum rows (default 20)"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MessagesResponse"}},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/messages/unread-count": {
            "get": {
                "tags": ["Messages"],
                "summary": "Unread message count",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UnreadCountResponse"}},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/messages/{id}/read": {
            "post": {
                "tags": ["Messages"],
                "summary": "Mark a received message as read",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}},
                    "404": {"description": "Not found or not addressed to the caller", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/students": {
            "get": {
                "tags": ["Students"],
                "summary": "Student dropdown options",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string", "description": "Name or admission number"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentOptionsResponse"}},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/students/{id}/photo": {
            "post": {
                "tags": ["Students"],
                "summary": "Upload a student photo",
                "description": "Accepts a base64 data URL of a JPEG or PNG image",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PhotoUploadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PhotoUploadResponse"}},
                    "400": {"description": "Invalid image", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Administrators only", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Unknown student", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/diagnostics": {
            "get": {
                "tags": ["Diagnostics"],
                "summary": "Diagnostics snapshot",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Diagnostics"}},
                    "403": {"description": "Administrators only", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "Status": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "Success": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"}
            }
        },
        "UnreadCountResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"}
            }
        },
        "Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "sender_id": {"type": "string"},
                "sender_name": {"type": "string"},
                "receiver_id": {"type": "string"},
                "subject": {"type": "string"},
                "body": {"type": "string"},
                "is_read": {"type": "boolean"},
                "read_at": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "MessagesResponse": {
            "type": "object",
            "properties": {
                "messages": {"type": "array", "items": {"$ref": "#/definitions/Message"}}
            }
        },
        "StudentOption": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "admission_no": {"type": "string"},
                "full_name": {"type": "string"}
            }
        },
        "StudentOptionsResponse": {
            "type": "object",
            "properties": {
                "students": {"type": "array", "items": {"$ref": "#/definitions/StudentOption"}}
            }
        },
        "PhotoUploadRequest": {
            "type": "object",
            "required": ["image"],
            "properties": {
                "image": {"type": "string", "description": "data:image/jpeg;base64,... or bare base64"}
            }
        },
        "PhotoUploadResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "photo_url": {"type": "string"}
            }
        },
        "Diagnostics": {
            "type": "object",
            "properties": {
                "cache": {
                    "type": "object",
                    "properties": {
                        "enabled": {"type": "boolean"},
                        "hits": {"type": "integer"},
                        "misses": {"type": "integer"},
                        "hit_ratio": {"type": "number"},
                        "keys": {"type": "integer"}
                    }
                },
                "metrics": {
                    "type": "object",
                    "properties": {
                        "requests_total": {"type": "integer"},
                        "avg_request_duration_ms": {"type": "number"},
                        "db_query_count": {"type": "integer"},
                        "avg_db_query_duration_ms": {"type": "number"},
                        "goroutines": {"type": "integer"},
                        "generated_at": {"type": "string", "format": "date-time"}
                    }
                },
                "db": {
                    "type": "object",
                    "properties": {
                        "open_connections": {"type": "integer"},
                        "in_use": {"type": "integer"},
                        "idle": {"type": "integer"},
                        "max_open": {"type": "integer"}
                    }
                },
                "runtime": {
                    "type": "object",
                    "properties": {
                        "heap_alloc_mb": {"type": "number"},
                        "sys_mb": {"type": "number"},
                        "num_gc": {"type": "integer"},
                        "go_version": {"type": "string"}
                    }
                },
                "db_online": {"type": "boolean"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
