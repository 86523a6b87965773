// Package docs provides Swagger documentation for the API.
package docs

// @title Appointflow Messaging API
// @version 1.0
// @description Campaign-triggered messaging execution engine for appointment businesses

// @contact.name API Support
// @contact.email support@appointflow.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https
