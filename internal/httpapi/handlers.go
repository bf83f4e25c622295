package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/plate"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/repo"
)

// Stable machine-readable error codes.
const (
	ErrCodeNotFound         = "not_found"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// ErrorResponse is the error envelope every endpoint returns on failure.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Fail aborts the request with a structured error envelope.
func Fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: requestID(c),
		Code:      code,
		Message:   msg,
	})
}

// Handlers serves the read-only API over the bot's datastore.
type Handlers struct {
	db *gorm.DB
}

// NewHandlers wires the handler set to the database.
func NewHandlers(db *gorm.DB) *Handlers {
	return &Handlers{db: db}
}

// ListTerms returns every configured search term.
func (h *Handlers) ListTerms(c *gin.Context) {
	terms, err := repo.ListSearchTerms(c.Request.Context(), h.db)
	if err != nil {
		Fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list search terms")
		return
	}
	c.JSON(http.StatusOK, gin.H{"terms": terms, "total": len(terms)})
}

// ListTermCars returns the tracked listings discovered under one term,
// newest first.
func (h *Handlers) ListTermCars(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Fail(c, http.StatusBadRequest, ErrCodeBadRequest, "term id required")
		return
	}
	listings, err := repo.ListTrackedBySearchTerm(c.Request.Context(), h.db, id)
	if err != nil {
		Fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list tracked cars")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cars": listings, "total": len(listings)})
}

// ListingHistory returns the change history of one tracked listing, oldest
// first.
func (h *Handlers) ListingHistory(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Fail(c, http.StatusBadRequest, ErrCodeBadRequest, "listing id required")
		return
	}
	history, err := repo.ListHistory(c.Request.Context(), h.db, id)
	if err != nil {
		Fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history, "total": len(history)})
}

// GetCar returns one cached road-tax record. The plate is normalized before
// lookup, so partial plates resolve to the same record the bot serves.
func (h *Handlers) GetCar(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("license"))
	if !plate.IsPlate(raw) {
		Fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid license plate")
		return
	}
	car, err := repo.FindCar(c.Request.Context(), h.db, plate.Normalize(raw))
	if err != nil {
		Fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not fetch record")
		return
	}
	if car == nil {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, "no record for plate")
		return
	}
	c.JSON(http.StatusOK, car)
}

// CountCars returns the size of the road-tax cache.
func (h *Handlers) CountCars(c *gin.Context) {
	total, err := repo.CountCars(c.Request.Context(), h.db)
	if err != nil {
		Fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not count records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}
