package repositories

import (
	"database/sql"
	"fmt"
	"time"

	intconfig "github.com/massamba-mbaye/covoiturage-senegal/internal/config"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain/models"
)

type NotificationRepository struct {
	DB *sql.DB
}

func (r NotificationRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Insert stores the in-app notification record.
func (r NotificationRepository) Insert(n models.Notification) (int64, error) {
	res, err := r.db().Exec(`
		INSERT INTO notifications (user_id, type, titre, message, data, lue, date_creation)
		VALUES (?, ?, ?, ?, ?, FALSE, NOW())`,
		n.UserID, n.Type, n.Titre, n.Message, n.Data)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListByUser returns a user's notifications, newest first.
func (r NotificationRepository) ListByUser(userID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db().Query(`
		SELECT id, user_id, type, titre, message, COALESCE(data, ''), lue, date_creation
		FROM notifications
		WHERE user_id = ?
		ORDER BY date_creation DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Titre, &n.Message, &n.Data, &n.Lue, &n.DateCreation); err != nil {
			return out, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread returns the badge count.
func (r NotificationRepository) CountUnread(userID int64) (int, error) {
	var n int
	err := r.db().QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND lue = FALSE`, userID).Scan(&n)
	return n, err
}

// MarkRead marks one notification read; scoped by owner.
func (r NotificationRepository) MarkRead(id, userID int64) error {
	_, err := r.db().Exec(`UPDATE notifications SET lue = TRUE WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

// MarkAllRead marks every unread notification of a user read.
func (r NotificationRepository) MarkAllRead(userID int64) error {
	_, err := r.db().Exec(`UPDATE notifications SET lue = TRUE WHERE user_id = ? AND lue = FALSE`, userID)
	return err
}

// Delete removes one notification; scoped by owner.
func (r NotificationRepository) Delete(id, userID int64) error {
	_, err := r.db().Exec(`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

// HasReminderForDay reports whether a rappel_trajet notification for this
// trip was already created for the user on the given day. This is the
// dedup the reminder sweep relies on.
func (r NotificationRepository) HasReminderForDay(userID, trajetID int64, day time.Time) (bool, error) {
	var n int
	err := r.db().QueryRow(`
		SELECT COUNT(*) FROM notifications
		WHERE user_id = ? AND type = 'rappel_trajet'
		  AND data LIKE ? AND DATE(date_creation) = ?`,
		userID,
		fmt.Sprintf(`%%"trajet_id":"%d"%%`, trajetID),
		day.Format("2006-01-02")).Scan(&n)
	return n > 0, err
}
