package middleware

import "github.com/gin-gonic/gin"

// Set - связка общих middleware, передается хендлерам при
// регистрации маршрутов.
type Set struct {
	Auth     gin.HandlerFunc
	LoadUser gin.HandlerFunc
}
