package routes

import (
	"github.com/labstack/echo/v4"

	"permanence-system/internal/controllers"
	"permanence-system/internal/workflow"
)

func runPermanenceRouter(
	secureGroup *echo.Group,
	permanenceCtrl *controllers.PermanenceController,
	assignmentCtrl *controllers.AssignmentController,
) {
	permanences := secureGroup.Group("/permanences")
	{
		permanences.GET("", permanenceCtrl.List)
		permanences.POST("", permanenceCtrl.Create)
		permanences.GET("/:id", permanenceCtrl.Get)
		permanences.PUT("/:id", permanenceCtrl.Update)
		permanences.DELETE("/:id", permanenceCtrl.Delete)
		permanences.GET("/:id/abilities", permanenceCtrl.Abilities)
		permanences.GET("/:id/pdf", permanenceCtrl.Print)

		permanences.POST("/:id/start", permanenceCtrl.Transition(workflow.VerbStart))
		permanences.POST("/:id/validate", permanenceCtrl.Transition(workflow.VerbValidate))
		permanences.POST("/:id/reopen", permanenceCtrl.Transition(workflow.VerbReopen))

		permanences.GET("/:id/assignments", assignmentCtrl.List)
		permanences.POST("/:id/assignments", assignmentCtrl.Create)
	}

	secureGroup.PUT("/assignments/:id", assignmentCtrl.Update)
	secureGroup.DELETE("/assignments/:id", assignmentCtrl.Delete)
}
