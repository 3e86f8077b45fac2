// Package api exposes the query pipeline over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/moodworks/moodboard/pkg/moodboard"
	"github.com/moodworks/moodboard/pkg/moodboard/internalerr"
)

// NewRouter builds the gin router serving the aggregate-statistics API.
//
//	GET /                 aggregate over the full corpus
//	GET /query/:expr      aggregate over rows matching the filter
//	GET /?query=...       same, expression in the query string
//	GET /health           liveness probe
//
// Responses are table-oriented JSON, or CSV with ?format=csv. A bad
// filter expression yields 400 with the parser's complaint.
func NewRouter(svc *moodboard.Service, logger *logrus.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(logger))
	router.Use(RecoveryMiddleware(logger))
	router.Use(CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "moodboard"})
	})

	h := &handler{svc: svc, logger: logger}
	router.GET("/", h.query)
	router.GET("/query/", h.query)
	router.GET("/query/:expr", h.query)

	return router
}

type handler struct {
	svc    *moodboard.Service
	logger *logrus.Logger
}

func (h *handler) query(c *gin.Context) {
	expr := c.Param("expr")
	if expr == "" {
		expr = c.Query("query")
	}

	res, err := h.svc.Query(c.Request.Context(), expr)
	if err != nil {
		if errors.Is(err, internalerr.ErrBadFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).WithField("query", expr).Error("query pipeline failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := res.WriteCSV(c.Writer); err != nil {
			h.logger.WithError(err).Error("csv serialization failed")
		}
		return
	}

	body, err := res.MarshalTable()
	if err != nil {
		h.logger.WithError(err).Error("table serialization failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
