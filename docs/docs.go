// Package docs registra a documentação OpenAPI servida em /swagger.
// Mantido em sincronia com as anotações dos handlers em internal/api/user.
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
        "/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Lista todos os usuários",
                "responses": {
                    "200": {"description": "Lista de usuários", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.User"}}},
                    "500": {"description": "Falha de armazenamento", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Cria um usuário",
                "parameters": [
                    {"description": "Dados do usuário", "name": "user", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.UserRegistration"}}
                ],
                "responses": {
                    "201": {"description": "Usuário criado", "schema": {"$ref": "#/definitions/domain.UserResponse"}},
                    "400": {"description": "Campos ausentes ou papel inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Email already exists", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/users/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Registra um novo usuário",
                "parameters": [
                    {"description": "Dados de registro", "name": "registration", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.UserRegistration"}}
                ],
                "responses": {
                    "201": {"description": "Usuário registrado", "schema": {"$ref": "#/definitions/domain.UserResponse"}},
                    "400": {"description": "Campos ausentes ou papel inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Email already exists", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/users/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Autentica um usuário",
                "parameters": [
                    {"description": "Credenciais", "name": "login", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Login realizado", "schema": {"$ref": "#/definitions/domain.UserResponse"}},
                    "400": {"description": "Email and password are required", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Obtém um usuário por ID",
                "parameters": [
                    {"type": "integer", "description": "ID do usuário", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Usuário encontrado", "schema": {"$ref": "#/definitions/domain.User"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Atualiza parcialmente um usuário",
                "parameters": [
                    {"type": "integer", "description": "ID do usuário", "name": "id", "in": "path", "required": true},
                    {"description": "Campos a alterar", "name": "patch", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.UserPatch"}}
                ],
                "responses": {
                    "200": {"description": "Usuário atualizado", "schema": {"$ref": "#/definitions/domain.UserResponse"}},
                    "400": {"description": "Payload inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Email already exists", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Remove um usuário",
                "parameters": [
                    {"type": "integer", "description": "ID do usuário", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Usuário removido", "schema": {"$ref": "#/definitions/domain.MessageResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "editor", "viewer"]},
                "createdAt": {"type": "string"},
                "lastLogin": {"type": "string"}
            }
        },
        "domain.UserRegistration": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "editor", "viewer"]}
            }
        },
        "domain.UserPatch": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "editor", "viewer"]}
            }
        },
        "domain.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "domain.UserResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "domain.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "domain.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "category": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "UserHub API",
	Description:      "API de gerenciamento de usuários com persistência em arquivo JSON.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
