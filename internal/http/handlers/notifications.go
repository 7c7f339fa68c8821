package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/http/middleware"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/repositories"
)

// ListNotifications returns the user's notifications. GET /api/notifications
func ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	repo := repositories.NotificationRepository{}
	notifications, err := repo.ListByUser(middleware.GetUserID(c), limit)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "total": len(notifications)})
}

// UnreadCount returns the badge count. GET /api/notifications/non-lues
func UnreadCount(c *gin.Context) {
	repo := repositories.NotificationRepository{}
	count, err := repo.CountUnread(middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}
	c.JSON(http.StatusOK, gin.H{"non_lues": count})
}

// MarkNotificationRead marks one notification read. PUT /api/notifications/:id/lue
func MarkNotificationRead(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	repo := repositories.NotificationRepository{}
	if err := repo.MarkRead(id, middleware.GetUserID(c)); err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marquee comme lue"})
}

// MarkAllNotificationsRead marks everything read. PUT /api/notifications/lues
func MarkAllNotificationsRead(c *gin.Context) {
	repo := repositories.NotificationRepository{}
	if err := repo.MarkAllRead(middleware.GetUserID(c)); err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notifications marquees comme lues"})
}

// DeleteNotification removes one notification. DELETE /api/notifications/:id
func DeleteNotification(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	repo := repositories.NotificationRepository{}
	if err := repo.Delete(id, middleware.GetUserID(c)); err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification supprimee"})
}
