// Package docs регистрирует OpenAPI-описание сервиса для /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/posts": {
            "get": {
                "tags": ["Posts"],
                "summary": "Список постов",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "name": "limit", "in": "query"},
                    {"type": "string", "name": "category", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/blog.PostPage"}}}
            }
        },
        "/posts/{slug}": {
            "get": {
                "tags": ["Posts"],
                "summary": "Пост по slug",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Post"}},
                    "404": {"description": "Пост не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/categories/{category}/posts": {
            "get": {
                "tags": ["Posts"],
                "summary": "Посты категории",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "category", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/blog.PostPage"}}}
            }
        },
        "/featured-post": {
            "get": {
                "tags": ["Posts"],
                "summary": "Избранный пост",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Post"}},
                    "404": {"description": "Опубликованных постов нет", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/popular-posts": {
            "get": {
                "tags": ["Posts"],
                "summary": "Популярные посты",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "default": 5, "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Post"}}}}
            }
        },
        "/search": {
            "get": {
                "tags": ["Posts"],
                "summary": "Поиск постов",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "query", "in": "query", "required": true},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Post"}}},
                    "400": {"description": "Некорректный запрос", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/subscribe": {
            "post": {
                "tags": ["Subscribers"],
                "summary": "Подписка на рассылку",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.NewSubscriber"}}],
                "responses": {
                    "201": {"description": "Подписка оформлена", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Некорректный email или уже подписан", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Вход администратора",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Неверные учетные данные", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Выход",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/user": {
            "get": {
                "tags": ["Auth"],
                "summary": "Текущий пользователь",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "401": {"description": "Нет сессии", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/admin/posts": {
            "get": {
                "security": [{"SessionCookie": []}],
                "tags": ["Admin"],
                "summary": "Все посты",
                "parameters": [
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "name": "limit", "in": "query"},
                    {"type": "string", "enum": ["draft", "published"], "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/blog.PostPage"}}}
            },
            "post": {
                "security": [{"SessionCookie": []}],
                "tags": ["Admin"],
                "summary": "Создать пост",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.NewPost"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Post"}},
                    "400": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/admin/posts/{id}": {
            "get": {
                "security": [{"SessionCookie": []}],
                "tags": ["Admin"],
                "summary": "Пост по ID",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Post"}},
                    "404": {"description": "Пост не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"SessionCookie": []}],
                "tags": ["Admin"],
                "summary": "Обновить пост",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.PostUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Post"}},
                    "404": {"description": "Пост не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"SessionCookie": []}],
                "tags": ["Admin"],
                "summary": "Удалить пост",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Пост не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/admin/subscribers": {
            "get": {
                "security": [{"SessionCookie": []}],
                "tags": ["Admin"],
                "summary": "Подписчики",
                "produces": ["application/json", "text/csv"],
                "parameters": [{"type": "string", "enum": ["csv"], "name": "format", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Subscriber"}}}}
            }
        },
        "/admin/system/status": {
            "get": {
                "security": [{"SessionCookie": []}],
                "tags": ["Admin"],
                "summary": "Состояние системы",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/supervisor.Status"}}}
            }
        },
        "/admin/dashboard": {
            "get": {
                "security": [{"SessionCookie": []}],
                "tags": ["Admin"],
                "summary": "Сводка",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/blog.Dashboard"}}}
            }
        },
        "/admin/users": {
            "post": {
                "security": [{"SessionCookie": []}],
                "tags": ["Admin"],
                "summary": "Создать пользователя",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.User"}},
                    "400": {"description": "Ошибка валидации или имя занято", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/admin/profile": {
            "put": {
                "security": [{"SessionCookie": []}],
                "tags": ["Admin"],
                "summary": "Изменить профиль",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ProfileRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}}}
            }
        }
    },
    "definitions": {
        "models.Post": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "slug": {"type": "string"},
                "excerpt": {"type": "string"},
                "content": {"type": "string"},
                "featuredImage": {"type": "string"},
                "category": {"type": "string"},
                "status": {"type": "string", "enum": ["draft", "published"]},
                "readTime": {"type": "integer"},
                "authorId": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"},
                "publishedAt": {"type": "string"}
            }
        },
        "models.NewPost": {
            "type": "object",
            "required": ["title", "excerpt", "content", "category"],
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "slug": {"type": "string"},
                "excerpt": {"type": "string", "maxLength": 500},
                "content": {"type": "string"},
                "featuredImage": {"type": "string"},
                "category": {"type": "string", "maxLength": 100},
                "status": {"type": "string", "enum": ["draft", "published"]},
                "readTime": {"type": "integer", "minimum": 1, "maximum": 600},
                "publishNow": {"type": "boolean"}
            }
        },
        "models.PostUpdate": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "slug": {"type": "string"},
                "excerpt": {"type": "string", "maxLength": 500},
                "content": {"type": "string"},
                "featuredImage": {"type": "string"},
                "category": {"type": "string", "maxLength": 100},
                "status": {"type": "string", "enum": ["draft", "published"]},
                "readTime": {"type": "integer", "minimum": 1, "maximum": 600},
                "publishNow": {"type": "boolean"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "displayName": {"type": "string"},
                "profileImage": {"type": "string"},
                "isAdmin": {"type": "boolean"}
            }
        },
        "models.Subscriber": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "models.NewSubscriber": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "models.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "models.RegisterRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string", "minLength": 3, "maxLength": 50},
                "password": {"type": "string", "minLength": 6},
                "displayName": {"type": "string"},
                "profileImage": {"type": "string"},
                "isAdmin": {"type": "boolean"}
            }
        },
        "models.ProfileRequest": {
            "type": "object",
            "properties": {
                "displayName": {"type": "string"},
                "profileImage": {"type": "string"},
                "password": {"type": "string", "minLength": 6}
            }
        },
        "blog.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "blog.PostPage": {
            "type": "object",
            "properties": {
                "posts": {"type": "array", "items": {"$ref": "#/definitions/models.Post"}},
                "pagination": {"$ref": "#/definitions/blog.Pagination"}
            }
        },
        "blog.Dashboard": {
            "type": "object",
            "properties": {
                "totalPosts": {"type": "integer"},
                "publishedPosts": {"type": "integer"},
                "draftPosts": {"type": "integer"},
                "subscribers": {"type": "integer"},
                "backend": {"type": "string"}
            }
        },
        "supervisor.Status": {
            "type": "object",
            "properties": {
                "backend": {"type": "string"},
                "configured": {"type": "string"},
                "state": {"type": "string"},
                "capabilities": {"type": "object", "additionalProperties": {"type": "string"}},
                "connection": {"type": "string"},
                "switches": {"type": "integer"},
                "lastError": {"type": "string"},
                "lastErrorAt": {"type": "string"},
                "startedAt": {"type": "string"},
                "uptime": {"type": "string"},
                "uptimeSeconds": {"type": "number"},
                "memory": {"type": "object"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "OK"},
                "message": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "Error"},
                "error": {"type": "string", "example": "post not found"}
            }
        }
    },
    "securityDefinitions": {
        "SessionCookie": {"type": "apiKey", "name": "techblog.sid", "in": "cookie"}
    }
}`

// SwaggerInfo содержит экспортируемую информацию Swagger, чтобы клиенты могли её изменить.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Techblog API",
	Description:      "Блог с публичным API постов, подпиской на рассылку и панелью администратора.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
