package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	carsapp "rentacar/internal/app/handlers/cars"
	"rentacar/internal/app/queries"
)

// CarHandler wires car commands and queries to HTTP.
type CarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type carRequest struct {
	ID          string   `json:"id"`
	AgencyID    string   `json:"agency_id"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	PricePerDay int64    `json:"price_per_day"`
	Currency    string   `json:"currency"`
	Fuel        string   `json:"fuel"`
	Gearbox     string   `json:"gearbox"`
	Seats       int      `json:"seats"`
	Doors       int      `json:"doors"`
	Mileage     int      `json:"mileage"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
}

func (r carRequest) input() carsapp.CarInput {
	return carsapp.CarInput{
		Brand:       r.Brand,
		Model:       r.Model,
		Year:        r.Year,
		PricePerDay: r.PricePerDay,
		Currency:    r.Currency,
		Fuel:        r.Fuel,
		Gearbox:     r.Gearbox,
		Seats:       r.Seats,
		Doors:       r.Doors,
		Mileage:     r.Mileage,
		Images:      r.Images,
		Description: r.Description,
	}
}

func (h CarHandler) List(c *gin.Context) {
	query := carsapp.ListCarsQuery{
		AgencyID: c.Query("agency_id"),
		Limit:    parseInt(c.Query("limit")),
		Offset:   parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[carsapp.ListCarsQuery, dto.CarCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CarHandler) Get(c *gin.Context) {
	result, err := queries.Ask[carsapp.GetCarQuery, dto.Car](c.Request.Context(), h.Queries, carsapp.GetCarQuery{CarID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CarHandler) Create(c *gin.Context) {
	var req carRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, "body", err)
		return
	}
	cmd := carsapp.CreateCarCommand{CarID: req.ID, AgencyID: req.AgencyID, Input: req.input()}
	result, err := commands.Dispatch[carsapp.CreateCarCommand, dto.Car](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h CarHandler) Update(c *gin.Context) {
	var req carRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, "body", err)
		return
	}
	cmd := carsapp.UpdateCarCommand{CarID: c.Param("id"), Input: req.input()}
	result, err := commands.Dispatch[carsapp.UpdateCarCommand, dto.Car](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CarHandler) Delete(c *gin.Context) {
	_, err := commands.Dispatch[carsapp.DeleteCarCommand, struct{}](c.Request.Context(), h.Commands, carsapp.DeleteCarCommand{CarID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseInt(raw string) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

var _ CarHTTP = CarHandler{}
