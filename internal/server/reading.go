package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	readingdomain "github.com/smallbiznis/rentbill/internal/reading/domain"
)

type createReadingRequest struct {
	Period        string  `json:"period" binding:"required,period"`
	ElectricIndex *int64  `json:"electric_index" binding:"omitempty,gte=0"`
	WaterIndex    *int64  `json:"water_index" binding:"omitempty,gte=0"`
	ImageURL      *string `json:"image_url" binding:"omitempty,url"`
	MeterReset    bool    `json:"meter_reset"`
}

type updateReadingRequest struct {
	ElectricIndex *int64  `json:"electric_index" binding:"omitempty,gte=0"`
	WaterIndex    *int64  `json:"water_index" binding:"omitempty,gte=0"`
	ImageURL      *string `json:"image_url" binding:"omitempty,url"`
	MeterReset    bool    `json:"meter_reset"`
}

func (s *Server) CreateReading(c *gin.Context) {
	roomID, ok := pathID(c)
	if !ok {
		return
	}

	var req createReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.readingSvc.Create(c.Request.Context(), readingdomain.CreateRequest{
		RoomID:        roomID,
		Period:        req.Period,
		ElectricIndex: req.ElectricIndex,
		WaterIndex:    req.WaterIndex,
		ImageURL:      req.ImageURL,
		MeterReset:    req.MeterReset,
		Actor:         actorFrom(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdateReading(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.readingSvc.Update(c.Request.Context(), readingdomain.UpdateRequest{
		ID:            id,
		ElectricIndex: req.ElectricIndex,
		WaterIndex:    req.WaterIndex,
		ImageURL:      req.ImageURL,
		MeterReset:    req.MeterReset,
		Actor:         actorFrom(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) GetReading(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := s.readingSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) ReadingHistory(c *gin.Context) {
	roomID, ok := pathID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	items, err := s.readingSvc.History(c.Request.Context(), roomID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
