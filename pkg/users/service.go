package users

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Service struct {
	store  Store
	logger zerolog.Logger
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// GetUser returns the stored user, or Placeholder(id) when there is none.
// Store failures other than a missing document are returned.
func (s *Service) GetUser(ctx context.Context, id int) (User, error) {
	u, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s.logger.Debug().Int("id", id).Msg("user not found")
		return Placeholder(id), nil
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Router mounts GET /users/:id.
func (s *Service) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/users/:id", s.handleGetUser)
	return r
}

func (s *Service) handleGetUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "user id must be an integer"})
		return
	}
	u, err := s.GetUser(c.Request.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Int("id", id).Msg("user lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	c.JSON(http.StatusOK, u)
}
