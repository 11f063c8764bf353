package service

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/angeloszaimis/student-service/internal/circuitbreaker"
	"github.com/angeloszaimis/student-service/internal/metrics"
	"github.com/angeloszaimis/student-service/internal/student"
)

const (
	OperationGetStudentByID          = "getStudentById"
	OperationGetAllStudentsWithDelay = "getAllStudentsWithDelay"
)

// Store is the read side of the record store.
type Store interface {
	All() iter.Seq[student.Record]
	FindByID(id string) (student.Record, bool)
}

type StudentService struct {
	logger   *slog.Logger
	store    Store
	breakers *circuitbreaker.Registry
	metrics  *metrics.Collector
}

// NewStudentService wires the façade. collector may be nil.
func NewStudentService(logger *slog.Logger, store Store, breakers *circuitbreaker.Registry, collector *metrics.Collector) *StudentService {
	return &StudentService{
		logger:   logger,
		store:    store,
		breakers: breakers,
		metrics:  collector,
	}
}

func (s *StudentService) ListAll() iter.Seq[student.Record] {
	return s.store.All()
}

func (s *StudentService) FindByID(id string) (student.Record, bool) {
	return s.store.FindByID(id)
}

// FindByIDWithDelay looks id up and holds the result back for delay. The
// error is non-nil only when ctx ends before the delay does.
func (s *StudentService) FindByIDWithDelay(ctx context.Context, id string, delay time.Duration) (student.Record, bool, error) {
	record, ok := s.store.FindByID(id)

	if err := sleep(ctx, delay); err != nil {
		return nil, false, err
	}

	return record, ok, nil
}

// ListAllWithDelay yields every record, each one delayed by delay. When ctx
// ends during a delay the sequence yields ctx's error and stops.
func (s *StudentService) ListAllWithDelay(ctx context.Context, delay time.Duration) iter.Seq2[student.Record, error] {
	return func(yield func(student.Record, error) bool) {
		for record := range s.store.All() {
			if err := sleep(ctx, delay); err != nil {
				yield(nil, err)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// GuardedFindByID looks id up through the getStudentById breaker. It returns
// the stored record, or student.Fallback(id) when the record is missing or
// the call fails, times out or is rejected.
func (s *StudentService) GuardedFindByID(ctx context.Context, id string) student.Record {
	return s.GuardedFindByIDWithDelay(ctx, id, 0)
}

// GuardedFindByIDWithDelay is GuardedFindByID over FindByIDWithDelay.
func (s *StudentService) GuardedFindByIDWithDelay(ctx context.Context, id string, delay time.Duration) student.Record {
	timeout := s.breakers.Policy().Timeout

	record, err := guard(ctx, s, OperationGetStudentByID, func(ctx context.Context) (student.Record, error) {
		return callWithTimeout(ctx, timeout, func(ctx context.Context) (student.Record, error) {
			record, ok, err := s.FindByIDWithDelay(ctx, id, delay)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("%w: id %q", ErrNotFound, id)
			}
			return record, nil
		})
	})
	if err != nil {
		s.logger.Warn("getStudentById call failed",
			slog.String("operation", OperationGetStudentByID),
			slog.String("id", id),
			slog.Duration("delay", delay),
			slog.Any("err", err))
		s.fallbackServed(OperationGetStudentByID)
		return student.Fallback(id)
	}

	return record
}

// GuardedListAllWithDelay lists through the getAllStudentsWithDelay breaker.
// Each record must arrive within the policy timeout of the previous one. On
// any failure the result is a single student.Unavailable record; records
// received before the failure are discarded.
func (s *StudentService) GuardedListAllWithDelay(ctx context.Context, delay time.Duration) iter.Seq[student.Record] {
	timeout := s.breakers.Policy().Timeout

	records, err := guard(ctx, s, OperationGetAllStudentsWithDelay, func(ctx context.Context) ([]student.Record, error) {
		return collectWithin(ctx, timeout, func(ctx context.Context) iter.Seq2[student.Record, error] {
			return s.ListAllWithDelay(ctx, delay)
		})
	})
	if err != nil {
		s.logger.Warn("getAllStudentsWithDelay call failed",
			slog.String("operation", OperationGetAllStudentsWithDelay),
			slog.Duration("delay", delay),
			slog.Any("err", err))
		s.fallbackServed(OperationGetAllStudentsWithDelay)
		return slices.Values([]student.Record{student.Unavailable()})
	}

	return slices.Values(records)
}

func (s *StudentService) fallbackServed(operation string) {
	s.metrics.Emit(metrics.MetricEvent{
		Type:      metrics.EventFallbackServed,
		Operation: operation,
	})
}
