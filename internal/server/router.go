package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Projects   ProjectService
	Developers DeveloperService
	Tasks      TaskService
	Audit      AuditService
}

func NewRouter(srv *Server, services Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(MetricsMiddleware)
	e.Use(ActorMiddleware)

	e.GET("/health", srv.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	projectSrv := NewProjectServer(services.Projects)
	projects := api.Group("/projects")
	projects.POST("", projectSrv.CreateProject)
	projects.GET("", projectSrv.ListProjects)
	projects.GET("/status/:status", projectSrv.ListProjectsByStatus)
	projects.GET("/overdue", projectSrv.ListOverdueProjects)
	projects.GET("/empty", projectSrv.ListEmptyProjects)
	projects.GET("/search", projectSrv.SearchProjects)
	projects.GET("/count/status/:status", projectSrv.CountProjectsByStatus)
	projects.GET("/:id", projectSrv.GetProject)
	projects.PUT("/:id", projectSrv.UpdateProject)
	projects.DELETE("/:id", projectSrv.DeleteProject)

	developerSrv := NewDeveloperServer(services.Developers)
	developers := api.Group("/developers")
	developers.POST("", developerSrv.CreateDeveloper)
	developers.GET("", developerSrv.ListDevelopers)
	developers.GET("/email/:email", developerSrv.GetDeveloperByEmail)
	developers.GET("/top-performers", developerSrv.TopPerformers)
	developers.GET("/available", developerSrv.AvailableDevelopers)
	developers.GET("/search/name", developerSrv.SearchByName)
	developers.GET("/search/skill", developerSrv.SearchBySkill)
	developers.GET("/:id", developerSrv.GetDeveloper)
	developers.PUT("/:id", developerSrv.UpdateDeveloper)
	developers.DELETE("/:id", developerSrv.DeleteDeveloper)

	taskSrv := NewTaskServer(services.Tasks)
	tasks := api.Group("/tasks")
	tasks.POST("", taskSrv.CreateTask)
	tasks.GET("", taskSrv.ListTasks)
	tasks.GET("/project/:projectId", taskSrv.ListTasksByProject)
	tasks.GET("/developer/:developerId", taskSrv.ListTasksByDeveloper)
	tasks.GET("/status/:status", taskSrv.ListTasksByStatus)
	tasks.GET("/overdue", taskSrv.ListOverdueTasks)
	tasks.GET("/unassigned", taskSrv.ListUnassignedTasks)
	tasks.GET("/due-date-range", taskSrv.ListTasksDueBetween)
	tasks.GET("/stats", taskSrv.Stats)
	tasks.PUT("/:id/assign/:developerId", taskSrv.AssignTask)
	tasks.PUT("/:id/unassign", taskSrv.UnassignTask)
	tasks.GET("/:id", taskSrv.GetTask)
	tasks.PUT("/:id", taskSrv.UpdateTask)
	tasks.DELETE("/:id", taskSrv.DeleteTask)

	auditSrv := NewAuditServer(services.Audit)
	audit := api.Group("/audit")
	audit.GET("/entity/:entityType/:entityId", auditSrv.GetEntityTrail)
	audit.GET("/user/:actorName", auditSrv.GetActorActions)
	audit.GET("/action/:actionType", auditSrv.GetActionsByType)
	audit.GET("/date-range", auditSrv.GetByDateRange)
	audit.GET("/recent", auditSrv.GetRecent)
	audit.GET("/count/entity-type/:entityType", auditSrv.CountByEntityType)
	audit.GET("/count/action/:actionType", auditSrv.CountByActionType)
	audit.GET("/count/actor/:actorName", auditSrv.CountByActor)
	audit.DELETE("/cleanup", auditSrv.Cleanup)

	return e
}
