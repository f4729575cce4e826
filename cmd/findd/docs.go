package main

// General API documentation for swaggo. Run `swag init -g cmd/findd/docs.go` to generate docs.
//
// @title           findd API
// @version         1.0
// @description     Voice-driven file search on top of the Everything engine.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
