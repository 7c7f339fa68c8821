package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/domain/models"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/repositories"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/utils"
)

// JWTSecret is set once at router construction from the environment.
var JWTSecret = []byte("super-secret-key-change-me")

type authUser struct {
	ID        int64  `json:"id"`
	Prenom    string `json:"prenom"`
	Nom       string `json:"nom"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

func toAuthUser(u models.User) authUser {
	return authUser{
		ID:        u.ID,
		Prenom:    u.Prenom,
		Nom:       u.Nom,
		Email:     u.Email,
		Telephone: u.Telephone,
	}
}

func issueToken(userID int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString(JWTSecret)
}

type registerRequest struct {
	Prenom     string `json:"prenom"`
	Nom        string `json:"nom"`
	Email      string `json:"email"`
	Telephone  string `json:"telephone"`
	MotDePasse string `json:"mot_de_passe"`
}

// Inscription creates an account. POST /api/auth/inscription
func Inscription(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	req.Prenom = strings.TrimSpace(req.Prenom)
	req.Nom = strings.TrimSpace(req.Nom)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Telephone = utils.CleanPhone(req.Telephone)

	switch {
	case len(req.Prenom) < 2:
		RespondDomainError(c, domain.ValidationError{Field: "prenom", Msg: "prenom requis"})
		return
	case len(req.Nom) < 2:
		RespondDomainError(c, domain.ValidationError{Field: "nom", Msg: "nom requis"})
		return
	case !strings.Contains(req.Email, "@"):
		RespondDomainError(c, domain.ValidationError{Field: "email", Msg: "email invalide"})
		return
	case !utils.ValidSenegalPhone(req.Telephone):
		RespondDomainError(c, domain.ValidationError{Field: "telephone", Msg: "numero senegalais invalide"})
		return
	case len(req.MotDePasse) < 6:
		RespondDomainError(c, domain.ValidationError{Field: "mot_de_passe", Msg: "6 caracteres minimum"})
		return
	}

	users := repositories.UserRepository{}
	exists, err := users.Exists(req.Email, req.Telephone)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}
	if exists {
		RespondDomainError(c, domain.ConflictError{Resource: "utilisateur", Msg: "email ou telephone deja utilise"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.MotDePasse), bcrypt.DefaultCost)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}

	user := models.User{
		Prenom:         req.Prenom,
		Nom:            req.Nom,
		Email:          req.Email,
		Telephone:      req.Telephone,
		MotDePasseHash: string(hash),
	}
	user.ID, err = users.Create(user)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}

	token, err := issueToken(user.ID)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": toAuthUser(user)})
}

type loginRequest struct {
	Identifiant string `json:"identifiant"`
	MotDePasse  string `json:"mot_de_passe"`
}

// Connexion authenticates by email or phone. POST /api/auth/connexion
func Connexion(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	req.Identifiant = strings.TrimSpace(req.Identifiant)
	if req.Identifiant == "" || req.MotDePasse == "" {
		RespondDomainError(c, domain.ValidationError{Msg: "identifiant et mot de passe requis"})
		return
	}

	users := repositories.UserRepository{}
	user, err := users.GetByIdentifier(req.Identifiant)
	if err != nil {
		if domain.IsNotFound(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "identifiant ou mot de passe incorrect"})
			return
		}
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.MotDePasseHash), []byte(req.MotDePasse)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identifiant ou mot de passe incorrect"})
		return
	}

	token, err := issueToken(user.ID)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Err: err})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": toAuthUser(user)})
}
