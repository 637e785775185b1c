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
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {"get": {"tags": ["Health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/auth/register": {"post": {"tags": ["Auth"], "summary": "Register a new account", "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid Input"}, "409": {"description": "Email taken"}}}},
        "/auth/login": {"post": {"tags": ["Auth"], "summary": "Exchange credentials for a bearer token", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid password"}, "403": {"description": "Account is deactivated"}, "404": {"description": "User not found"}}}},
        "/auth/me": {"get": {"tags": ["Auth"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"tags": ["Auth"], "summary": "Logout", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/auth/forgot-password": {"post": {"tags": ["Auth"], "summary": "Issue a password reset token", "responses": {"200": {"description": "OK"}, "404": {"description": "User not found"}}}},
        "/auth/reset-password": {"post": {"tags": ["Auth"], "summary": "Reset password with a token", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid or expired reset token"}}}},
        "/users": {"get": {"tags": ["User"], "summary": "List users", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/users/profile": {
            "get": {"tags": ["User"], "summary": "Get User Profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["User"], "summary": "Update User Profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/users/change-password": {"put": {"tags": ["User"], "summary": "Change password", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Current password is incorrect"}}}},
        "/users/{id}/status": {"put": {"tags": ["User"], "summary": "Activate or deactivate a user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/role": {"put": {"tags": ["User"], "summary": "Change a user's role", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/products": {
            "get": {"tags": ["Product"], "summary": "List products", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Product"], "summary": "Create product", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/products/{id}": {
            "get": {"tags": ["Product"], "summary": "Get product", "responses": {"200": {"description": "OK"}, "404": {"description": "Product not found"}}},
            "put": {"tags": ["Product"], "summary": "Update product", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Product"], "summary": "Delete product", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/dashboard/overview": {"get": {"tags": ["Dashboard"], "summary": "Headline counters", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/dashboard/stats": {"get": {"tags": ["Dashboard"], "summary": "Overview with category breakdown", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/dashboard/product-stats": {"get": {"tags": ["Dashboard"], "summary": "Product aggregates", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/dashboard/user-stats": {"get": {"tags": ["Dashboard"], "summary": "User aggregates", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/dashboard/recent-activity": {"get": {"tags": ["Dashboard"], "summary": "Recent registrations and products", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/dashboard/growth-stats": {"get": {"tags": ["Dashboard"], "summary": "Monthly growth series", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/export/products/csv": {"get": {"tags": ["Export"], "summary": "Products as CSV", "produces": ["text/csv"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/export/users/csv": {"get": {"tags": ["Export"], "summary": "Users as CSV", "produces": ["text/csv"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/export/dashboard/json": {"get": {"tags": ["Export"], "summary": "Dashboard report", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "OCOP Products API",
	Description:      "Inventory and user management for OCOP products.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
