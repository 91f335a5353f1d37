package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           RottenStocks API
// @version         0.1.0
// @description     Dual expert/popular stock sentiment ratings from market and social data.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
