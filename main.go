package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	intconfig "github.com/massamba-mbaye/covoiturage-senegal/internal/config"
	router "github.com/massamba-mbaye/covoiturage-senegal/internal/http"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/repositories"
	"github.com/massamba-mbaye/covoiturage-senegal/internal/services"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	intconfig.ConnectDB(env)
	defer intconfig.CloseDB()

	// Router (Gin engine)
	r := router.NewRouter(env)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopSweep := make(chan struct{})
	go runSweeps(env, stopSweep)

	go func() {
		log.Printf("Serveur en ecoute sur http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Echec demarrage serveur: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Arret du serveur...")
	close(stopSweep)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Echec arret serveur: %v", err)
	}

	log.Println("Serveur arrete proprement.")
}

// runSweeps drives the background maintenance: trips past departure are
// completed every minute, departure reminders go out hourly. Both reuse the
// same transactional engine as the request path.
func runSweeps(env intconfig.Env, stop <-chan struct{}) {
	engine := services.ReservationService{
		Notifier:    services.NotificationService{},
		WindowHours: env.CancelWindowHours,
	}
	notifier := services.NotificationService{}

	completeTicker := time.NewTicker(time.Minute)
	defer completeTicker.Stop()
	reminderTicker := time.NewTicker(time.Hour)
	defer reminderTicker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-completeTicker.C:
			if _, err := engine.CompleteDueTrips(); err != nil {
				log.Printf("[SWEEP] completion err=%v", err)
			}
		case <-reminderTicker.C:
			sent, err := notifier.SendDepartureReminders(time.Now(),
				repositories.ReservationRepository{DB: intconfig.DB},
				repositories.TripRepository{DB: intconfig.DB})
			if err != nil {
				log.Printf("[SWEEP] reminders err=%v", err)
			} else if sent > 0 {
				log.Printf("[SWEEP] rappels envoyes=%d", sent)
			}
		}
	}
}
