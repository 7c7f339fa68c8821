package api

import (
	"log"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	intconfig "github.com/massamba-mbaye/covoiturage-senegal/internal/config"
	h "github.com/massamba-mbaye/covoiturage-senegal/internal/http/handlers"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/http/middleware"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	h.JWTSecret = []byte(env.JWTSecret)
	h.CancelWindowHours = env.CancelWindowHours

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route introuvable",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		auth := api.Group("/auth")
		auth.POST("/inscription", h.Inscription)
		auth.POST("/connexion", h.Connexion)

		// Public trip browsing
		api.GET("/trajets", h.SearchTrips)
		api.GET("/trajets/:id", h.GetTrip)

		// Everything below requires an authenticated identity.
		authed := api.Group("")
		authed.Use(middleware.Auth(h.JWTSecret))

		authed.POST("/trajets", h.PublishTrip)
		authed.DELETE("/trajets/:id", h.CancelTrip)
		authed.GET("/mes-trajets", h.MyTrips)

		authed.POST("/reservations", h.Reserve)
		authed.DELETE("/reservations/:id", h.CancelReservation)
		authed.GET("/mes-reservations", h.MyReservations)
		authed.GET("/reservations/:id/e-ticket", h.ETicket)

		notifications := authed.Group("/notifications")
		notifications.GET("", h.ListNotifications)
		notifications.GET("/non-lues", h.UnreadCount)
		notifications.PUT("/lues", h.MarkAllNotificationsRead)
		notifications.PUT("/:id/lue", h.MarkNotificationRead)
		notifications.DELETE("/:id", h.DeleteNotification)
	}

	return r
}
