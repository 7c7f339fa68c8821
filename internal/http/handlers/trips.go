package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/http/middleware"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/services"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/utils"
)

type publishRequest struct {
	VilleDepart       string `json:"ville_depart"`
	VilleDestination  string `json:"ville_destination"`
	DateDepart        string `json:"date_depart"`
	PrixParPlace      int64  `json:"prix_par_place"`
	PlacesTotales     int    `json:"places_totales"`
	VoitureMarque     string `json:"voiture_marque"`
	VoitureModele     string `json:"voiture_modele"`
	PointDepartPrecis string `json:"point_depart_precis"`
	Description       string `json:"description"`
}

// PublishTrip creates a trip for the authenticated driver. POST /api/trajets
func PublishTrip(c *gin.Context) {
	var req publishRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	depart, err := utils.ParseDateTime(req.DateDepart)
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Field: "date_depart", Msg: "format attendu AAAA-MM-JJ HH:MM"})
		return
	}

	svc := services.TripService{RequestID: middleware.GetRequestID(c)}
	trip, err := svc.Publish(services.PublishCommand{
		ChauffeurID:       middleware.GetUserID(c),
		VilleDepart:       req.VilleDepart,
		VilleDestination:  req.VilleDestination,
		DateDepart:        depart,
		PrixParPlace:      req.PrixParPlace,
		PlacesTotales:     req.PlacesTotales,
		VoitureMarque:     req.VoitureMarque,
		VoitureModele:     req.VoitureModele,
		PointDepartPrecis: req.PointDepartPrecis,
		Description:       req.Description,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trajet": trip})
}

// SearchTrips lists bookable trips. GET /api/trajets?depart=&destination=&date=
func SearchTrips(c *gin.Context) {
	svc := services.TripService{RequestID: middleware.GetRequestID(c)}
	trips, err := svc.Search(c.Query("depart"), c.Query("destination"), c.Query("date"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trajets": trips, "total": len(trips)})
}

// GetTrip returns one trip with driver details. GET /api/trajets/:id
func GetTrip(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	svc := services.TripService{RequestID: middleware.GetRequestID(c)}
	trip, err := svc.Get(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trajet": trip})
}

// CancelTrip cancels the authenticated driver's trip. DELETE /api/trajets/:id
func CancelTrip(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	engine := newEngine(c)
	if err := engine.CancelTrip(id, middleware.GetUserID(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trajet annule avec succes"})
}

// MyTrips lists the authenticated driver's trips. GET /api/mes-trajets
func MyTrips(c *gin.Context) {
	svc := services.TripService{RequestID: middleware.GetRequestID(c)}
	trips, err := svc.ListByChauffeur(middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trajets": trips, "total": len(trips)})
}
