package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"solar-sizer/internal/catalog"
	"solar-sizer/internal/mqtt"
	"solar-sizer/internal/sizing"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router    *gin.Engine
	server    *http.Server
	store     *catalog.Store
	engine    *sizing.Engine
	publisher *mqtt.Publisher
	port      int
}

type ServerConfig struct {
	Port      int
	Store     *catalog.Store
	Publisher *mqtt.Publisher
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:    router,
		store:     cfg.Store,
		engine:    sizing.NewEngine(cfg.Store),
		publisher: cfg.Publisher,
		port:      cfg.Port,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api/v1")
	{
		api.POST("/sizings/calculate", s.calculateHandler)
		api.GET("/sizings", s.listSizingsHandler)
		api.GET("/sizings/:id", s.getSizingHandler)

		api.GET("/catalog", s.listItemsHandler)
		api.POST("/catalog", s.createItemHandler)
		api.GET("/catalog/:id", s.getItemHandler)
		api.PUT("/catalog/:id", s.updateItemHandler)
		api.DELETE("/catalog/:id", s.deleteItemHandler)

		api.GET("/parameters", s.getParametersHandler)
		api.PUT("/parameters", s.updateParametersHandler)
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
