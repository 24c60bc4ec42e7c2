package main

//go:generate swag init -g cmd/manualexec/main.go -o docs

// @title           Manual Execution API
// @version         1.0
// @description     Human-confirmed manual execution loop: export, prepare, ticket, record, ops summary.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
