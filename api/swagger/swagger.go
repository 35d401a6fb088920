package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Blog API",
        "description": "REST backend for the blogging platform",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Session lifecycle"},
        {"name": "Users", "description": "User profiles"},
        {"name": "Blogs", "description": "Blog posts and banner images"},
        {"name": "Comments", "description": "Comments on blog posts"},
        {"name": "Likes", "description": "Likes on blog posts"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a new user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Session"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/APIError"}},
                    "403": {"description": "Admin registration not allowed", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Session"}},
                    "401": {"description": "Invalid password", "schema": {"$ref": "#/definitions/APIError"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/auth/refresh-token": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RefreshResponse"}},
                    "401": {"description": "Invalid or expired refresh token", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/users/current": {
            "get": {
                "tags": ["Users"],
                "summary": "Get current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}
                }
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update current user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}
                }
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Delete current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/users/{userId}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user by id (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/APIError"}}
                }
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Delete user by id (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/blogs": {
            "get": {
                "tags": ["Blogs"],
                "summary": "List blog posts (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Blogs"],
                "summary": "Create blog post (admin)",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "title", "in": "formData", "required": true, "type": "string"},
                    {"name": "content", "in": "formData", "required": true, "type": "string"},
                    {"name": "status", "in": "formData", "type": "string"},
                    {"name": "banner_image", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Blog"}}
                }
            }
        },
        "/blogs/user/{userId}": {
            "get": {
                "tags": ["Blogs"],
                "summary": "List blog posts by author (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/blogs/export": {
            "get": {
                "tags": ["Blogs"],
                "summary": "Export blog inventory (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "description": "csv or pdf"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/blogs/{slug}": {
            "get": {
                "tags": ["Blogs"],
                "summary": "Get blog post by slug",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "slug", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Blog"}},
                    "403": {"description": "Draft not visible", "schema": {"$ref": "#/definitions/APIError"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/blogs/{blogId}": {
            "put": {
                "tags": ["Blogs"],
                "summary": "Update blog post",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "blogId", "in": "path", "required": true, "type": "string"},
                    {"name": "title", "in": "formData", "type": "string"},
                    {"name": "content", "in": "formData", "type": "string"},
                    {"name": "status", "in": "formData", "type": "string"},
                    {"name": "banner_image", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Blog"}}
                }
            },
            "delete": {
                "tags": ["Blogs"],
                "summary": "Delete blog post",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "blogId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/banners/{token}": {
            "get": {
                "tags": ["Blogs"],
                "summary": "Download banner image",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "401": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/comments/blog/{blogId}": {
            "get": {
                "tags": ["Comments"],
                "summary": "List comments on a blog post",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "blogId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Comments"],
                "summary": "Comment on a blog post",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "blogId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCommentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Comment"}}
                }
            }
        },
        "/comments/{commentId}": {
            "delete": {
                "tags": ["Comments"],
                "summary": "Delete a comment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "commentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/likes/blog/{blogId}": {
            "post": {
                "tags": ["Likes"],
                "summary": "Like a blog post",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "blogId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LikeResult"}}
                }
            },
            "delete": {
                "tags": ["Likes"],
                "summary": "Remove a like from a blog post",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "blogId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["user", "admin"]}
            },
            "required": ["email", "password"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "Session": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/UserInfo"},
                "accessToken": {"type": "string"}
            }
        },
        "UserInfo": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "RefreshResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"}
            }
        },
        "User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "website": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "website": {"type": "string"},
                "facebook": {"type": "string"},
                "instagram": {"type": "string"},
                "linkedin": {"type": "string"},
                "x": {"type": "string"},
                "youtube": {"type": "string"}
            }
        },
        "Blog": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "slug": {"type": "string"},
                "content": {"type": "string"},
                "bannerUrl": {"type": "string"},
                "status": {"type": "string", "enum": ["draft", "published"]},
                "authorId": {"type": "string"},
                "author": {"type": "string"},
                "likesCount": {"type": "integer"},
                "commentsCount": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "CreateCommentRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            },
            "required": ["content"]
        },
        "Comment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "blogId": {"type": "string"},
                "userId": {"type": "string"},
                "content": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "LikeResult": {
            "type": "object",
            "properties": {
                "likesCount": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
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
