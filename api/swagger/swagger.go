package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Haven Care Compliance API",
        "description": "Training compliance engine for multi-home care providers",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Sessions and credentials"},
        {"name": "Roster", "description": "Scope-resolved staff roster"},
        {"name": "Courses", "description": "Course catalog and audiences"},
        {"name": "Records", "description": "Training record lifecycle"},
        {"name": "Assignments", "description": "Due-by assignment workflow"},
        {"name": "Compliance", "description": "Reports, summaries and exports"},
        {"name": "Certificates", "description": "Certificate uploads and signed downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/roster": {
            "get": {
                "tags": ["Roster"],
                "summary": "List the caller's visible roster",
                "parameters": [
                    {"name": "companyId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Scope resolution failed"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List course catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Update course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete course and its records",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/courses/{id}/audience": {
            "put": {
                "tags": ["Courses"],
                "summary": "Replace a course's target audience",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceAudienceRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/people/{personId}/records": {
            "get": {
                "tags": ["Records"],
                "summary": "List a person's training records",
                "parameters": [
                    {"name": "personId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Records"],
                "summary": "Submit a training completion",
                "parameters": [
                    {"name": "personId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitCompletionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate live record"}
                }
            }
        },
        "/people/{personId}/training": {
            "get": {
                "tags": ["Compliance"],
                "summary": "Person training view",
                "parameters": [
                    {"name": "personId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/records/{id}": {
            "put": {
                "tags": ["Records"],
                "summary": "Correct a completed record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRecordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Pending records cannot be edited"}
                }
            },
            "delete": {
                "tags": ["Records"],
                "summary": "Delete a completed record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/records/{id}/certificate": {
            "post": {
                "tags": ["Certificates"],
                "summary": "Upload a certificate",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large"}
                }
            }
        },
        "/assignments/preview": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Preview assignment conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Create assignments",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicting recipients, resolution required"}
                }
            }
        },
        "/compliance/report": {
            "get": {
                "tags": ["Compliance"],
                "summary": "Mandatory-mode compliance report",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/compliance/homes": {
            "get": {
                "tags": ["Compliance"],
                "summary": "Per-home compliance summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateCourseRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "trainingType": {"type": "string", "enum": ["EVERYONE", "CONDITIONAL", "OPTIONAL"]},
                "validityMonths": {"type": "integer"},
                "dueSoonDays": {"type": "integer"}
            },
            "required": ["name", "trainingType"]
        },
        "UpdateCourseRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "trainingType": {"type": "string"},
                "validityMonths": {"type": "integer"},
                "dueSoonDays": {"type": "integer"}
            }
        },
        "ReplaceAudienceRequest": {
            "type": "object",
            "properties": {
                "personIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SubmitCompletionRequest": {
            "type": "object",
            "properties": {
                "courseId": {"type": "string"},
                "dateCompleted": {"type": "string", "format": "date"},
                "certificateRef": {"type": "string"}
            },
            "required": ["courseId", "dateCompleted"]
        },
        "UpdateRecordRequest": {
            "type": "object",
            "properties": {
                "dateCompleted": {"type": "string", "format": "date"},
                "certificateRef": {"type": "string"}
            },
            "required": ["dateCompleted"]
        },
        "CreateAssignmentRequest": {
            "type": "object",
            "properties": {
                "courseId": {"type": "string"},
                "dueBy": {"type": "string", "format": "date"},
                "recipientIds": {"type": "array", "items": {"type": "string"}},
                "homeIds": {"type": "array", "items": {"type": "string"}},
                "resolution": {"type": "string", "enum": ["SKIP", "ALL"]}
            },
            "required": ["courseId", "dueBy"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
