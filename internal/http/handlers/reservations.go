package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain/models"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/http/middleware"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/policy"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/services"
)

// CancelWindowHours is set once at router construction from the environment.
var CancelWindowHours = policy.DefaultWindowHours

// newEngine builds the transaction engine wired to the shared DB and the
// notification dispatcher, carrying the request id for logs.
func newEngine(c *gin.Context) services.ReservationService {
	reqID := middleware.GetRequestID(c)
	return services.ReservationService{
		Notifier:    services.NotificationService{RequestID: reqID},
		WindowHours: CancelWindowHours,
		RequestID:   reqID,
	}
}

type reserveRequest struct {
	TrajetID     int64  `json:"trajet_id"`
	NombrePlaces int    `json:"nombre_places"`
	Message      string `json:"message"`
	ModePaiement string `json:"mode_paiement"`
}

// Reserve books seats on a trip. POST /api/reservations
func Reserve(c *gin.Context) {
	var req reserveRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	engine := newEngine(c)
	reservation, err := engine.Reserve(services.ReserveCommand{
		TrajetID:     req.TrajetID,
		PassagerID:   middleware.GetUserID(c),
		NombrePlaces: req.NombrePlaces,
		Message:      req.Message,
		ModePaiement: models.PaymentMethod(req.ModePaiement),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reservation": reservation})
}

// CancelReservation cancels the rider's own reservation. DELETE /api/reservations/:id
func CancelReservation(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	engine := newEngine(c)
	if err := engine.CancelByRider(id, middleware.GetUserID(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reservation annulee avec succes"})
}

// MyReservations lists the rider's reservations. GET /api/mes-reservations
func MyReservations(c *gin.Context) {
	svc := services.TripService{RequestID: middleware.GetRequestID(c)}
	reservations, err := svc.ListReservationsByPassager(middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations, "total": len(reservations)})
}

// ETicket streams the reservation's e-ticket PDF.
// GET /api/reservations/:id/e-ticket
func ETicket(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	svc := services.DocsService{RequestID: middleware.GetRequestID(c)}
	pdf, filename, err := svc.GenerateETicket(id, middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
