package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Timetable API",
        "description": "Weekly class-schedule generation and constraint validation",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Planner", "description": "Timetable generation, validation and commit"},
        {"name": "Reference", "description": "Subjects, teachers, rooms, cohorts and committed sessions"},
        {"name": "Exports", "description": "Timetable file exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/planning-runs": {
            "post": {
                "tags": ["Planner"],
                "summary": "Generate a weekly timetable proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GeneratePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "Proposal", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planning-runs/{id}": {
            "get": {
                "tags": ["Planner"],
                "summary": "Fetch a planning run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planning-runs/{id}/commit": {
            "post": {
                "tags": ["Planner"],
                "summary": "Commit a planning run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Unresolved violations or unplaced requirements", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/validate": {
            "post": {
                "tags": ["Planner"],
                "summary": "Validate a session set against the constraint catalogue",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Reference"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "practical", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Reference"],
                "summary": "List teachers",
                "parameters": [
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "subjectCode", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Reference"],
                "summary": "List rooms and laboratories",
                "parameters": [
                    {"name": "lab", "in": "query", "type": "boolean"},
                    {"name": "building", "in": "query", "type": "string"},
                    {"name": "minCapacity", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cohorts": {
            "get": {
                "tags": ["Reference"],
                "summary": "List cohorts",
                "parameters": [
                    {"name": "batch", "in": "query", "type": "string"},
                    {"name": "seniority", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Reference"],
                "summary": "List committed sessions",
                "parameters": [
                    {"name": "cohortId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "roomId", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export the committed timetable",
                "parameters": [
                    {"name": "cohortId", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Download link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an exported timetable file",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "GeneratePlanRequest": {
            "type": "object",
            "required": ["cohortIds"],
            "properties": {
                "cohortIds": {"type": "array", "items": {"type": "string"}},
                "overrides": {"$ref": "#/definitions/PlanningOverrides"},
                "ignoreCommitted": {"type": "boolean"},
                "async": {"type": "boolean"}
            }
        },
        "PlanningOverrides": {
            "type": "object",
            "properties": {
                "days": {"type": "array", "items": {"type": "string"}},
                "periodsPerDay": {"type": "integer"},
                "firstLessonStart": {"type": "string"},
                "seed": {"type": "integer"},
                "thesisDay": {"type": "string"},
                "thesisSubjectCode": {"type": "string"}
            }
        },
        "ValidateScheduleRequest": {
            "type": "object",
            "required": ["sessions"],
            "properties": {
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/SessionInput"}},
                "overrides": {"$ref": "#/definitions/PlanningOverrides"},
                "ignoreCommitted": {"type": "boolean"}
            }
        },
        "SessionInput": {
            "type": "object",
            "required": ["cohortId", "subjectCode", "teacherId", "roomId", "day", "period"],
            "properties": {
                "id": {"type": "string"},
                "cohortId": {"type": "string"},
                "subjectCode": {"type": "string"},
                "teacherId": {"type": "string"},
                "roomId": {"type": "string"},
                "day": {"type": "string"},
                "period": {"type": "integer"},
                "periodSpan": {"type": "integer"},
                "isPractical": {"type": "boolean"}
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
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
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
