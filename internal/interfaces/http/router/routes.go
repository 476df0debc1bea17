package router

import (
	"github.com/erp/channelsync/internal/infrastructure/auth"
	"github.com/erp/channelsync/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// ChannelRoutes builds the channel group: manual sync runs, single product
// import and the connection test.
func ChannelRoutes(channels *handler.ChannelSyncHandler, jobs *handler.SchedulerHandler) *DomainGroup {
	g := NewDomainGroup("channels", "/channels")
	g.GET("/:id", channels.GetChannel, auth.ScopeSyncRun, auth.ScopeSchedulerRead)
	g.POST("/:id/sync/:operation", channels.RunSync, auth.ScopeSyncRun)
	g.POST("/:id/sync/:operation/enqueue", jobs.EnqueueSync, auth.ScopeSyncRun)
	g.POST("/:id/products/import", channels.ImportProduct, auth.ScopeProductImport)
	g.POST("/:id/test-connection", channels.TestConnection, auth.ScopeChannelTest)
	return g
}

// SchedulerRoutes builds the background queue group
func SchedulerRoutes(jobs *handler.SchedulerHandler) *DomainGroup {
	g := NewDomainGroup("scheduler", "/scheduler")
	g.GET("/jobs", jobs.ListJobs, auth.ScopeSchedulerRead)
	g.GET("/stats", jobs.Stats, auth.ScopeSchedulerRead)
	g.POST("/trigger", jobs.TriggerAll, auth.ScopeSyncRun)
	return g
}

// SystemRoutes builds the authenticated system group
func SystemRoutes(system *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", system.GetSystemInfo)
	g.GET("/ping", system.Ping)
	return g
}

// RegisterProbes mounts the unauthenticated liveness and readiness probes at
// the engine root. Their paths must be in the JWT middleware skip list.
func RegisterProbes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
}
