// Package server serves a sliced pyramid over HTTP for remote viewers.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/deepzoom/internal/pyramid"
	"github.com/example/deepzoom/internal/tilesource"
)

// Server exposes one image. Every run gets a fresh id so clients cannot
// mix tiles from different runs.
type Server struct {
	src  tilesource.Source
	info tilesource.Info
	pyr  *pyramid.Pyramid
}

// New reads the image description from src and assigns a new id.
func New(ctx context.Context, src tilesource.Source) (*Server, error) {
	info, err := src.Info(ctx)
	if err != nil {
		return nil, err
	}
	p, err := pyramid.New(info.Levels)
	if err != nil {
		return nil, err
	}
	info.ID = uuid.NewString()
	return &Server{src: src, info: info, pyr: p}, nil
}

// Info returns what /info reports.
func (s *Server) Info() tilesource.Info { return s.info }

// Handler builds the gin engine. Access logs go to logw; nil disables them.
func (s *Server) Handler(logw io.Writer) http.Handler {
	e := gin.New()
	e.Use(gin.Recovery())
	if logw != nil {
		e.Use(gin.LoggerWithWriter(logw))
	}
	e.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodHead},
	}))
	s.routes(e.Group("/"))
	return e
}

func (s *Server) routes(g *gin.RouterGroup) {
	g.GET("", s.handleIndex)
	g.GET("info", s.handleInfo)
	g.GET("tile/:id/:level/:tile", s.handleTile)
}

// handleIndex is the entry point: it names the image and tells a client
// where to find the rest.
func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"title":  s.info.Title,
		"id":     s.info.ID,
		"levels": s.pyr.LevelCount(),
		"info":   "/info",
		"tiles":  "/tile/" + s.info.ID + "/{level}/{left}_{top}.jpg",
	})
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.info)
}

// handleTile answers a tile the image does not have with an empty 200 body,
// which viewers treat as "nothing to draw".
func (s *Server) handleTile(c *gin.Context) {
	if c.Param("id") != s.info.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown image id"})
		return
	}
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid level"})
		return
	}
	left, top, err := pyramid.ParseTileName(c.Param("tile"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key := pyramid.TileKey{Level: level, Left: left, Top: top}
	if !s.pyr.Contains(key) {
		c.Status(http.StatusOK)
		return
	}
	b, err := s.src.Tile(c.Request.Context(), key)
	if errors.Is(err, tilesource.ErrNotFound) {
		c.Status(http.StatusOK)
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tile unavailable"})
		return
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
	c.Data(http.StatusOK, "image/jpeg", b)
}
