package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"permanence-system/internal/controllers"
	"permanence-system/internal/dto"
	"permanence-system/internal/entities"
	"permanence-system/internal/services"
)

type registreServices struct {
	logbook   services.LogbookServiceInterface
	energy    services.EnergyServiceInterface
	restart   services.RestartServiceInterface
	reception services.ReceptionServiceInterface
}

// recordRoutes вешает на один вид записей вложенные (по permanence) и плоские маршруты.
type recordRoutes interface {
	List(echo.Context) error
	Create(echo.Context) error
	Update(echo.Context) error
	Delete(echo.Context) error
}

func mountRecords(secureGroup *echo.Group, path string, ctrl recordRoutes) {
	secureGroup.GET("/permanences/:id/"+path, ctrl.List)
	secureGroup.POST("/permanences/:id/"+path, ctrl.Create)
	secureGroup.PUT("/"+path+"/:id", ctrl.Update)
	secureGroup.DELETE("/"+path+"/:id", ctrl.Delete)
}

func runRegistreRouter(secureGroup *echo.Group, svc registreServices, logger *zap.Logger) {
	mountRecords(secureGroup, "events", controllers.NewShiftRecordController[entities.RelationManageriale, dto.LogbookEventDTO](svc.logbook, controllers.RecordMessages{
		Listed:  "Relations managériales",
		Created: "Événement enregistré",
		Updated: "Événement mis à jour",
	}, logger))

	mountRecords(secureGroup, "energy-readings", controllers.NewShiftRecordController[entities.ReleveEnergie, dto.EnergyReadingDTO](svc.energy, controllers.RecordMessages{
		Listed:  "Relevés d'énergie",
		Created: "Relevé enregistré",
		Updated: "Relevé mis à jour",
	}, logger))

	mountRecords(secureGroup, "restarts", controllers.NewShiftRecordController[entities.RedemarrageAppareil, dto.RestartRecordDTO](svc.restart, controllers.RecordMessages{
		Listed:  "Redémarrages d'appareils",
		Created: "Redémarrage enregistré",
		Updated: "Redémarrage mis à jour",
	}, logger))

	mountRecords(secureGroup, "receptions", controllers.NewShiftRecordController[entities.ReceptionMateriel, dto.MaterialReceptionDTO](svc.reception, controllers.RecordMessages{
		Listed:  "Réceptions de matériel",
		Created: "Réception enregistrée",
		Updated: "Réception mise à jour",
	}, logger))
}
