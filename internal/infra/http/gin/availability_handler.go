package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	availabilityapp "rentacar/internal/app/handlers/availability"
	"rentacar/internal/app/queries"
	"rentacar/internal/domain/shared/daterange"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
	Now      func() time.Time
}

type datesRequest struct {
	Dates []daterange.Date `json:"dates"`
}

// Calendar serves one month; year and month default to the current ones.
func (h AvailabilityHandler) Calendar(c *gin.Context) {
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	year, month := now.Year(), int(now.Month())
	var err error
	if raw := c.Query("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			badRequest(c, h.Logger, "year", errors.New("year must be a number"))
			return
		}
	}
	if raw := c.Query("month"); raw != "" {
		if month, err = strconv.Atoi(raw); err != nil {
			badRequest(c, h.Logger, "month", errors.New("month must be a number"))
			return
		}
	}
	query := availabilityapp.GetCalendarQuery{CarID: c.Param("id"), Year: year, Month: month}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Block(c *gin.Context) {
	var req datesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, "dates", err)
		return
	}
	cmd := availabilityapp.BlockDatesCommand{CarID: c.Param("id"), Dates: req.Dates}
	result, err := commands.Dispatch[availabilityapp.BlockDatesCommand, dto.BlockResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	body := gin.H{"car_id": result.CarID, "blocked": result.Changed, "skipped": result.Skipped}
	if result.Message != "" {
		body["message"] = result.Message
	}
	c.JSON(http.StatusOK, body)
}

func (h AvailabilityHandler) Unblock(c *gin.Context) {
	var req datesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, "dates", err)
		return
	}
	cmd := availabilityapp.UnblockDatesCommand{CarID: c.Param("id"), Dates: req.Dates}
	result, err := commands.Dispatch[availabilityapp.UnblockDatesCommand, dto.BlockResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"car_id": result.CarID, "unblocked": result.Changed, "skipped": result.Skipped})
}

var _ AvailabilityHTTP = AvailabilityHandler{}
