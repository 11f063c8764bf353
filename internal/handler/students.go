package handler

import (
	"context"
	"iter"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/angeloszaimis/student-service/internal/student"
)

// StudentService is the part of the query façade the handlers use.
type StudentService interface {
	ListAll() iter.Seq[student.Record]
	GuardedFindByIDWithDelay(ctx context.Context, id string, delay time.Duration) student.Record
	GuardedListAllWithDelay(ctx context.Context, delay time.Duration) iter.Seq[student.Record]
}

type StudentHandler struct {
	logger  *slog.Logger
	service StudentService
}

func NewStudentHandler(logger *slog.Logger, service StudentService) *StudentHandler {
	return &StudentHandler{
		logger:  logger,
		service: service,
	}
}

// ListStudents answers GET /students.
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, collect(h.service.ListAll()))
}

// GetStudent answers GET /students/{id}. An optional delay query parameter
// holds the lookup back by that many seconds.
func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var delay time.Duration
	if raw := r.URL.Query().Get("delay"); raw != "" {
		d, err := parseSeconds(raw)
		if err != nil {
			h.badRequest(w, "delay", raw, err)
			return
		}
		delay = d
	}

	writeJSON(w, h.logger, http.StatusOK, h.service.GuardedFindByIDWithDelay(r.Context(), id, delay))
}

// ListStudentsWithDelay answers GET /students/delay/{seconds}.
func (h *StudentHandler) ListStudentsWithDelay(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("seconds")

	delay, err := parseSeconds(raw)
	if err != nil {
		h.badRequest(w, "seconds", raw, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, collect(h.service.GuardedListAllWithDelay(r.Context(), delay)))
}

func (h *StudentHandler) badRequest(w http.ResponseWriter, param, value string, err error) {
	h.logger.Debug("Rejected request parameter",
		slog.String("param", param),
		slog.String("value", value),
		slog.Any("err", err))
	http.Error(w, param+": "+err.Error(), http.StatusBadRequest)
}

// maxSeconds keeps the delay representable as a time.Duration.
const maxSeconds = math.MaxInt64 / int64(time.Second)

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, validation.NewError("validation_is_int", "must be an integer")
	}

	if err := validation.Validate(seconds, validation.Min(int64(0)), validation.Max(maxSeconds)); err != nil {
		return 0, err
	}

	return time.Duration(seconds) * time.Second, nil
}

func collect(records iter.Seq[student.Record]) []student.Record {
	out := make([]student.Record, 0)
	for r := range records {
		out = append(out, r)
	}
	return out
}
