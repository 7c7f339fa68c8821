package services

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	intconfig "github.com/massamba-mbaye/covoiturage-senegal/internal/config"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/repositories"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/utils"
)

// DocsService renders the e-ticket PDF a rider can present at departure.
type DocsService struct {
	ReservationRepo repositories.ReservationRepository
	TripRepo        repositories.TripRepository
	UserRepo        repositories.UserRepository
	DB              *sql.DB
	RequestID       string
}

func (s DocsService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s DocsService) reservations() repositories.ReservationRepository {
	if s.ReservationRepo.DB != nil {
		return s.ReservationRepo
	}
	return repositories.ReservationRepository{DB: s.db()}
}

func (s DocsService) trips() repositories.TripRepository {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepository{DB: s.db()}
}

func (s DocsService) users() repositories.UserRepository {
	if s.UserRepo.DB != nil {
		return s.UserRepo
	}
	return repositories.UserRepository{DB: s.db()}
}

type ticketData struct {
	ReservationID int64
	TrajetID      int64
	PassagerNom   string
	PassagerTel   string
	Route         string
	DateDepart    string
	HeureDepart   string
	PointDepart   string
	ChauffeurNom  string
	Voiture       string
	NombrePlaces  int
	PrixTotal     int64
	ModePaiement  string
}

// GenerateETicket builds the PDF for one reservation. Only the rider who
// owns it or the trip's driver may request it.
func (s DocsService) GenerateETicket(reservationID, demandeurID int64) ([]byte, string, error) {
	res, err := s.reservations().GetByID(reservationID)
	if err != nil {
		return nil, "", err
	}
	trip, err := s.trips().GetByID(res.TrajetID)
	if err != nil {
		return nil, "", err
	}
	if demandeurID != res.PassagerID && demandeurID != trip.ChauffeurID {
		return nil, "", domain.ForbiddenError{Msg: "cette reservation ne vous appartient pas"}
	}

	data := ticketData{
		ReservationID: res.ID,
		TrajetID:      trip.ID,
		Route:         trip.VilleDepart + " -> " + trip.VilleDestination,
		DateDepart:    utils.FormatDate(trip.DateDepart),
		HeureDepart:   utils.FormatTimeHM(trip.DateDepart),
		PointDepart:   trip.PointDepartPrecis,
		ChauffeurNom:  strings.TrimSpace(trip.ChauffeurPrenom + " " + trip.ChauffeurNom),
		Voiture:       strings.TrimSpace(trip.VoitureMarque + " " + trip.VoitureModele),
		NombrePlaces:  res.NombrePlaces,
		PrixTotal:     res.PrixTotal,
		ModePaiement:  string(res.ModePaiement),
	}
	if rider, err := s.users().GetByID(res.PassagerID); err == nil {
		data.PassagerNom = strings.TrimSpace(rider.Prenom + " " + rider.Nom)
		data.PassagerTel = utils.FormatSenegalPhone(rider.Telephone)
	}

	utils.LogEvent(s.RequestID, "docs", "generate_eticket", fmt.Sprintf("reservation_id=%d", reservationID))
	return buildETicketPDF(data)
}

func buildETicketPDF(d ticketData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket Covoiturage", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET COVOITURAGE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Passager       : %s", safe(d.PassagerNom, "-")),
		fmt.Sprintf("Telephone      : %s", safe(d.PassagerTel, "-")),
		fmt.Sprintf("Trajet         : %s", safe(d.Route, "-")),
		fmt.Sprintf("Date / Heure   : %s %s", safe(d.DateDepart, "-"), safe(d.HeureDepart, "-")),
		fmt.Sprintf("Point de RDV   : %s", safe(d.PointDepart, "-")),
		fmt.Sprintf("Chauffeur      : %s", safe(d.ChauffeurNom, "-")),
		fmt.Sprintf("Vehicule       : %s", safe(d.Voiture, "-")),
		fmt.Sprintf("Places         : %d", d.NombrePlaces),
		fmt.Sprintf("Prix total     : %s", utils.FormatFCFA(d.PrixTotal)),
		fmt.Sprintf("Paiement       : %s", safe(d.ModePaiement, "-")),
		fmt.Sprintf("Code ticket    : CVT-%d-%d", d.TrajetID, d.ReservationID),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Note: le paiement se fait directement entre passager et chauffeur. Presentez ce ticket au depart.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ETICKET_%d.pdf", d.ReservationID)
	return buf.Bytes(), filename, nil
}

func safe(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
