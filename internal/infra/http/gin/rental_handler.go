package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	rentalsapp "rentacar/internal/app/handlers/rentals"
	"rentacar/internal/app/queries"
	"rentacar/internal/domain/shared/daterange"
)

type RentalHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createRentalRequest struct {
	CarID     string         `json:"car_id"`
	StartDate daterange.Date `json:"start_date"`
	EndDate   daterange.Date `json:"end_date"`
	PickupAt  time.Time      `json:"pickup_at"`
	ReturnAt  time.Time      `json:"return_at"`
	Total     int64          `json:"total"`
	Currency  string         `json:"currency"`
	Notes     string         `json:"notes"`
}

type quoteRequest struct {
	StartDate daterange.Date `json:"start_date"`
	EndDate   daterange.Date `json:"end_date"`
}

type statusRequest struct {
	Status         string `json:"status"`
	ExpectedStatus string `json:"expected_status"`
}

type cancelRequest struct {
	ExpectedStatus string `json:"expected_status"`
}

func (h RentalHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, "body", err)
		return
	}
	query := rentalsapp.QuoteQuery{CarID: c.Param("id"), Start: req.StartDate, End: req.EndDate}
	result, err := queries.Ask[rentalsapp.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentalHandler) Create(c *gin.Context) {
	var req createRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, "body", err)
		return
	}
	cmd := rentalsapp.CreateRentalCommand{
		CarID:           req.CarID,
		Start:           req.StartDate,
		End:             req.EndDate,
		PickupAt:        req.PickupAt,
		ReturnAt:        req.ReturnAt,
		Total:           req.Total,
		Currency:        req.Currency,
		Notes:           req.Notes,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	if who, ok := currentActor(c); ok {
		cmd.ClientID = who.ID
	}
	result, err := commands.Dispatch[rentalsapp.CreateRentalCommand, *dto.Rental](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h RentalHandler) Get(c *gin.Context) {
	result, err := queries.Ask[rentalsapp.GetRentalQuery, dto.Rental](c.Request.Context(), h.Queries, rentalsapp.GetRentalQuery{RentalID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentalHandler) ListMine(c *gin.Context) {
	result, err := queries.Ask[rentalsapp.ListMyRentalsQuery, dto.RentalCollection](c.Request.Context(), h.Queries, rentalsapp.ListMyRentalsQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAgency lists the caller's agency rentals; super admins pass agency_id.
func (h RentalHandler) ListAgency(c *gin.Context) {
	agencyID := c.Query("agency_id")
	if who, ok := currentActor(c); ok && agencyID == "" {
		agencyID = who.AgencyID
	}
	query := rentalsapp.ListAgencyRentalsQuery{AgencyID: agencyID, Statuses: splitCSV(c.Query("status"))}
	result, err := queries.Ask[rentalsapp.ListAgencyRentalsQuery, dto.RentalCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentalHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, "body", err)
		return
	}
	cmd := rentalsapp.UpdateRentalStatusCommand{RentalID: c.Param("id"), Status: req.Status, ExpectedStatus: req.ExpectedStatus}
	result, err := commands.Dispatch[rentalsapp.UpdateRentalStatusCommand, dto.Rental](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentalHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, h.Logger, "body", err)
			return
		}
	}
	cmd := rentalsapp.CancelRentalCommand{RentalID: c.Param("id"), ExpectedStatus: req.ExpectedStatus}
	result, err := commands.Dispatch[rentalsapp.CancelRentalCommand, dto.Rental](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var _ RentalHTTP = RentalHandler{}
