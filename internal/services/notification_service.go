package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	intconfig "github.com/massamba-mbaye/covoiturage-senegal/internal/config"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain/models"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/repositories"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/utils"
)

// Transport is the outbound channel collaborator. Real SMS/email delivery
// is out of scope; the default implementation only logs.
type Transport interface {
	SendSMS(telephone, message string) error
	SendEmail(email, titre, message string) error
}

// LogTransport is the default fire-and-forget transport.
type LogTransport struct{}

func (LogTransport) SendSMS(telephone, message string) error {
	utils.LogEvent("", "notification", "sms", fmt.Sprintf("to=%s msg=%s", utils.FormatSenegalPhone(telephone), message))
	return nil
}

func (LogTransport) SendEmail(email, titre, message string) error {
	utils.LogEvent("", "notification", "email", fmt.Sprintf("to=%s titre=%s", email, titre))
	return nil
}

type notificationTemplate struct {
	Titre   string
	Message string
	Canaux  []string
}

// Templates per event type. Placeholders are {cle} substituted from the
// event data; channel selection is per-event.
var notificationTemplates = map[string]notificationTemplate{
	models.EventNewReservation: {
		Titre:   "Nouvelle reservation !",
		Message: "{passager_nom} a reserve {nb_places} place(s) pour votre trajet {trajet_route} le {date}",
		Canaux:  []string{"sms", "in_app"},
	},
	models.EventReservationConfirmed: {
		Titre:   "Reservation confirmee !",
		Message: "Votre reservation pour le trajet {trajet_route} le {date} a {heure} est confirmee ({prix_total})",
		Canaux:  []string{"sms", "email", "in_app"},
	},
	models.EventReservationCancelled: {
		Titre:   "Reservation annulee",
		Message: "La reservation de {passager_nom} sur votre trajet {trajet_route} du {date} a ete annulee",
		Canaux:  []string{"sms", "in_app"},
	},
	models.EventTripCancelled: {
		Titre:   "Trajet annule",
		Message: "Le trajet {trajet_route} du {date} a {heure} a ete annule par le chauffeur",
		Canaux:  []string{"sms", "email", "in_app"},
	},
	models.EventTripCompleted: {
		Titre:   "Trajet termine",
		Message: "Votre trajet {trajet_route} du {date} est termine. Merci d'avoir voyage avec nous !",
		Canaux:  []string{"in_app"},
	},
	models.EventTripReminder: {
		Titre:   "Rappel de trajet",
		Message: "Votre trajet {trajet_route} a lieu demain a {heure}. {message_specifique}",
		Canaux:  []string{"sms", "in_app"},
	},
}

// NotificationService renders templated messages and fans them out. It never
// participates in the booking transaction: failures are logged and swallowed.
type NotificationService struct {
	NotificationRepo repositories.NotificationRepository
	UserRepo         repositories.UserRepository
	Transport        Transport
	DB               *sql.DB
	RequestID        string
}

func (s NotificationService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s NotificationService) notifications() repositories.NotificationRepository {
	if s.NotificationRepo.DB != nil {
		return s.NotificationRepo
	}
	return repositories.NotificationRepository{DB: s.db()}
}

func (s NotificationService) users() repositories.UserRepository {
	if s.UserRepo.DB != nil {
		return s.UserRepo
	}
	return repositories.UserRepository{DB: s.db()}
}

func (s NotificationService) transport() Transport {
	if s.Transport != nil {
		return s.Transport
	}
	return LogTransport{}
}

// Notify stores the in-app record and pushes the configured channels.
// Best-effort by contract: no error ever reaches the caller.
func (s NotificationService) Notify(userID int64, event string, data map[string]string) {
	if userID <= 0 {
		return
	}

	titre, message, canaux := RenderNotification(event, data)

	payload := ""
	if len(data) > 0 {
		if raw, err := json.Marshal(data); err == nil {
			payload = string(raw)
		}
	}

	if _, err := s.notifications().Insert(models.Notification{
		UserID:  userID,
		Type:    event,
		Titre:   titre,
		Message: message,
		Data:    payload,
	}); err != nil {
		utils.LogEvent(s.RequestID, "notification", "insert",
			fmt.Sprintf("user_id=%d type=%s err=%v", userID, event, err))
		return
	}

	user, err := s.users().GetByID(userID)
	if err != nil {
		utils.LogEvent(s.RequestID, "notification", "load_user",
			fmt.Sprintf("user_id=%d err=%v", userID, err))
		return
	}

	for _, canal := range canaux {
		var sendErr error
		switch canal {
		case "sms":
			sendErr = s.transport().SendSMS(user.Telephone, message)
		case "email":
			if user.Email != "" {
				sendErr = s.transport().SendEmail(user.Email, titre, message)
			}
		case "in_app":
			// already stored
		}
		if sendErr != nil {
			utils.LogEvent(s.RequestID, "notification", "send",
				fmt.Sprintf("user_id=%d canal=%s err=%v", userID, canal, sendErr))
		}
	}
}

// RenderNotification resolves the template for an event and substitutes
// placeholders. Unknown events fall back to a generic message.
func RenderNotification(event string, data map[string]string) (titre, message string, canaux []string) {
	tpl, ok := notificationTemplates[event]
	if !ok {
		return "Nouvelle notification", "Vous avez une nouvelle notification", []string{"in_app"}
	}
	return substitute(tpl.Titre, data), substitute(tpl.Message, data), tpl.Canaux
}

func substitute(text string, data map[string]string) string {
	for cle, valeur := range data {
		text = strings.ReplaceAll(text, "{"+cle+"}", valeur)
	}
	return text
}

// SendDepartureReminders notifies drivers and confirmed riders of trips
// departing within the next day. Deduplicated per trip and day through the
// notifications table, like the original cron.
func (s NotificationService) SendDepartureReminders(now time.Time, reservations repositories.ReservationRepository, trips repositories.TripRepository) (int, error) {
	tomorrow := now.Add(24 * time.Hour)
	due, err := trips.ListDepartingBetween(now, tomorrow)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, trip := range due {
		data := map[string]string{
			"trajet_id":          fmt.Sprintf("%d", trip.ID),
			"trajet_route":       trip.VilleDepart + " -> " + trip.VilleDestination,
			"date":               utils.FormatDate(trip.DateDepart),
			"heure":              utils.FormatTimeHM(trip.DateDepart),
			"message_specifique": "Vos passagers comptent sur vous !",
		}
		if sentOne := s.remindOnce(trip.ChauffeurID, trip.ID, now, data); sentOne {
			sent++
		}

		riderData := map[string]string{}
		for k, v := range data {
			riderData[k] = v
		}
		riderData["message_specifique"] = "Preparez-vous pour demain !"

		confirmed, err := reservations.ListByTrip(trip.ID)
		if err != nil {
			utils.LogEvent(s.RequestID, "notification", "reminder",
				fmt.Sprintf("trajet_id=%d err=%v", trip.ID, err))
			continue
		}
		for _, res := range confirmed {
			if res.Statut != models.ReservationConfirmed {
				continue
			}
			if sentOne := s.remindOnce(res.PassagerID, trip.ID, now, riderData); sentOne {
				sent++
			}
		}
	}
	return sent, nil
}

func (s NotificationService) remindOnce(userID, trajetID int64, now time.Time, data map[string]string) bool {
	already, err := s.notifications().HasReminderForDay(userID, trajetID, now)
	if err != nil || already {
		return false
	}
	s.Notify(userID, models.EventTripReminder, data)
	return true
}
