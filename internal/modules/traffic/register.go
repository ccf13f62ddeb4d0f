package traffic

import (
	"database/sql"
	"net/http"

	"roadpulse-server/internal/modules/traffic/controller"
	"roadpulse-server/internal/modules/traffic/repository"
	"roadpulse-server/internal/modules/traffic/service"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, subscriber service.MessageSubscriber) {
	trafficRepository := repository.NewRepository(db)
	trafficService := service.NewService(trafficRepository)
	trafficService.RegisterIngest(subscriber)
	trafficController := controller.NewTrafficController(trafficService)
	trafficController.RegisterRoutes(mux)
}
