package handler

import (
	"net/http"

	"github.com/mtlprog/slaola/internal/domain"
	"github.com/mtlprog/slaola/internal/handler/dto"
	"github.com/mtlprog/slaola/internal/service"
	"github.com/shopspring/decimal"
)

// handleComputeDeadline computes a deadline without touching storage.
// A malformed calendar is not an error: the duration is applied as elapsed
// time and the reason is reported in calendar_error.
func (h *Handler) handleComputeDeadline(w http.ResponseWriter, r *http.Request) {
	var req dto.ComputeDeadlineRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	hours := *req.Hours
	if err := service.ValidateDuration(decimal.NewNullDecimal(decimal.NewFromFloat(hours))); err != nil {
		respondDomainError(w, err)
		return
	}

	var (
		cal    *domain.BusinessCalendar
		calErr string
	)
	if c := req.Calendar; c != nil {
		parsed, err := domain.ParseBusinessCalendar(c.StartOfDay, c.EndOfDay, c.Days, c.Timezone)
		if err != nil {
			calErr = err.Error()
		} else {
			cal = parsed
		}
	}

	result := service.ComputeDeadlineResult(req.Start, hours, cal)

	respondJSON(w, http.StatusOK, dto.DeadlineResponse{
		Deadline:        result.Deadline,
		CalendarApplied: result.CalendarApplied,
		CalendarError:   calErr,
	})
}
