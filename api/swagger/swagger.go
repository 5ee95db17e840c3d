package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Ingenia STEAM API",
        "description": "Authoring, publishing and playing STEAM activities",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Landing", "description": "Landing page aggregate and current profile"},
        {"name": "Activities", "description": "Activity catalogue, authoring and exports"},
        {"name": "Media", "description": "Uploads and signed media links"},
        {"name": "State", "description": "Per-user draft editor and player progress"},
        {"name": "Signup", "description": "Teacher and organization sign-up requests"},
        {"name": "Admin", "description": "Sign-up review and organizations"}
    ],
    "paths": {
        "/landing": {
            "get": {
                "tags": ["Landing"],
                "summary": "Landing page lists",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/me": {
            "get": {
                "tags": ["Landing"],
                "summary": "Current session, profile and capabilities",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activities/public": {
            "get": {
                "tags": ["Activities"],
                "summary": "Published public activities",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/activities/org": {
            "get": {
                "tags": ["Activities"],
                "summary": "Activities of the caller's organization",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/activities/marketplace": {
            "get": {
                "tags": ["Activities"],
                "summary": "Published marketplace listings",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/activities": {
            "post": {
                "tags": ["Activities"],
                "summary": "Create an activity",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Activity"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activities/{id}": {
            "get": {
                "tags": ["Activities"],
                "summary": "Fetch one activity or a built-in seed",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Activities"],
                "summary": "Update an activity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Activity"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activities/{id}/publish": {
            "post": {
                "tags": ["Activities"],
                "summary": "Publish an activity",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Published"}}
            }
        },
        "/activities/{id}/export.json": {
            "get": {
                "tags": ["Activities"],
                "summary": "Download an activity as JSON",
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Attachment"}}
            }
        },
        "/activities/{id}/export.pdf": {
            "get": {
                "tags": ["Activities"],
                "summary": "Download a printable worksheet",
                "produces": ["application/pdf"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Attachment"}}
            }
        },
        "/media": {
            "post": {
                "tags": ["Media"],
                "summary": "Upload an image or video",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [{"name": "file", "in": "formData", "required": true, "type": "file"}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Rejected file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/media/sign": {
            "post": {
                "tags": ["Media"],
                "summary": "Issue a time-limited link for a stored object",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/media/signed/{path}": {
            "get": {
                "tags": ["Media"],
                "summary": "Stream an object through a signed link",
                "parameters": [
                    {"name": "path", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "Object bytes"}, "403": {"description": "Expired or invalid token"}}
            }
        },
        "/state/draft": {
            "get": {
                "tags": ["State"],
                "summary": "Current draft",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["State"],
                "summary": "Import a draft from a JSON export",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["State"],
                "summary": "Discard the draft",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/state/draft/events": {
            "post": {
                "tags": ["State"],
                "summary": "Apply one editor event",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/state/draft/save": {
            "post": {
                "tags": ["State"],
                "summary": "Create or update the draft remotely",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/state/draft/publish": {
            "post": {
                "tags": ["State"],
                "summary": "Save and publish the draft",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/state/draft/export.json": {
            "get": {
                "tags": ["State"],
                "summary": "Download the draft as JSON",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Attachment"}}
            }
        },
        "/state/progress/{activityId}": {
            "get": {
                "tags": ["State"],
                "summary": "Player progress for one activity",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "activityId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/state/progress/{activityId}/events": {
            "post": {
                "tags": ["State"],
                "summary": "Apply one player event",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "activityId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/signup-requests": {
            "post": {
                "tags": ["Signup"],
                "summary": "Submit a sign-up request",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/signup-requests": {
            "get": {
                "tags": ["Admin"],
                "summary": "List sign-up requests",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "status", "in": "query", "type": "string", "enum": ["pending", "approved", "rejected"]}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/signup-requests/export.csv": {
            "get": {
                "tags": ["Admin"],
                "summary": "Download sign-up requests as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {"200": {"description": "Attachment"}}
            }
        },
        "/admin/signup-requests/{id}/approve": {
            "post": {
                "tags": ["Admin"],
                "summary": "Approve a pending request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/signup-requests/{id}/reject": {
            "post": {
                "tags": ["Admin"],
                "summary": "Reject a pending request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/signup-requests/{id}": {
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete a request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/admin/organizations": {
            "get": {
                "tags": ["Admin"],
                "summary": "List organizations",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "MediaItem": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["image", "video", "link"]},
                "url": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "Section": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "text": {"type": "string"},
                "media": {"type": "array", "items": {"$ref": "#/definitions/MediaItem"}},
                "allowUploads": {"type": "boolean"},
                "uploadKinds": {"type": "array", "items": {"type": "string"}},
                "maxUploads": {"type": "integer"}
            }
        },
        "Activity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "objective": {"type": "string"},
                "materials": {"type": "array", "items": {"type": "string"}},
                "materialsMedia": {"type": "array", "items": {"$ref": "#/definitions/MediaItem"}},
                "estMinutes": {"type": "integer"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "grades": {"type": "array", "items": {"type": "string"}},
                "subjects": {"type": "array", "items": {"type": "string"}},
                "sections": {"type": "array", "items": {"$ref": "#/definitions/Section"}},
                "visibility": {"type": "string"},
                "audience": {"type": "string"},
                "price_mxn": {"type": "number"},
                "listing_status": {"type": "string"},
                "org_id": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "detail": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
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
