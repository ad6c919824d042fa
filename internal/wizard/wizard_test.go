package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"advisor-booking/internal/client"
	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/domain/entity"
	"advisor-booking/internal/session"
	"advisor-booking/internal/slot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var berlin = mustLoad("Europe/Berlin")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Monday 2026-10-19 08:00 in Berlin
func fixedNow() time.Time {
	return time.Date(2026, 10, 19, 8, 0, 0, 0, berlin)
}

func slotAt(day, hour int, available bool) slot.TimeSlot {
	start := time.Date(2026, 10, day, hour, 0, 0, 0, berlin)
	return slot.TimeSlot{Start: start, End: start.Add(time.Hour), Available: available}
}

type fakeGateway struct {
	mu        sync.Mutex
	calls     []string
	responses map[string]*dto.AvailabilityResponse
	gates     map[string]chan struct{}
	err       error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		responses: map[string]*dto.AvailabilityResponse{},
		gates:     map[string]chan struct{}{},
	}
}

func (g *fakeGateway) GetAvailability(ctx context.Context, advisorID uuid.UUID, date string) (*dto.AvailabilityResponse, error) {
	g.mu.Lock()
	g.calls = append(g.calls, date)
	gate := g.gates[date]
	resp := g.responses[date]
	err := g.err
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &dto.AvailabilityResponse{AdvisorID: advisorID, Date: date, AvailableSlots: []slot.TimeSlot{}}, nil
	}
	return resp, nil
}

func (g *fakeGateway) callDates() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

type fakeSubmitter struct {
	calls   int32
	release chan struct{}
	err     error
	last    *dto.CreateAppointmentRequest
}

func (s *fakeSubmitter) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.release != nil {
		<-s.release
	}
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: uuid.New(), AdvisorID: req.AdvisorID, Type: req.Type, Status: "REQUESTED"}, nil
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestWizard(gateway AvailabilityGateway, submitter BookingSubmitter) *Wizard {
	advisor := &dto.AdvisorResponse{ID: uuid.New(), Name: "Dr. Anna Weber"}
	return New(advisor, gateway, submitter, discardLogger(), WithClock(fixedNow), WithLocation(berlin))
}

// walkToConfirmation fills every step with valid data.
func walkToConfirmation(t *testing.T, w *Wizard, gateway *fakeGateway) {
	t.Helper()
	gateway.mu.Lock()
	gateway.responses["2026-10-20"] = &dto.AvailabilityResponse{
		Date:           "2026-10-20",
		AvailableSlots: []slot.TimeSlot{slotAt(20, 9, true), slotAt(20, 10, false)},
	}
	gateway.mu.Unlock()

	require.NoError(t, w.SelectType(entity.AppointmentTypeVideoCall))
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectDate(context.Background(), "2026-10-20"))
	w.WaitAvailability()
	require.NoError(t, w.SelectSlot(slotAt(20, 9, true).Start))
	require.NoError(t, w.Next())
	require.NoError(t, w.SetSymptoms([]string{"Stress und Burnout"}))
	require.NoError(t, w.Next())
	require.Equal(t, StepConfirmation, w.Step())
}

func TestNew_InitialState(t *testing.T) {
	w := newTestWizard(newFakeGateway(), &fakeSubmitter{})

	d := w.Data()
	assert.Equal(t, StepTypeSelection, w.Step())
	assert.Equal(t, w.Advisor().ID, d.AdvisorID)
	assert.Empty(t, d.Type)
	assert.Empty(t, d.ScheduledAt)
	assert.Equal(t, entity.DefaultDurationMinutes, d.Duration)
	assert.Equal(t, entity.PriorityRoutine, d.Priority)
	assert.Empty(t, d.Symptoms)
	assert.Equal(t, StatusEditing, w.Status())
}

func TestNext_DisabledIffPreconditionFails(t *testing.T) {
	gateway := newFakeGateway()
	gateway.responses["2026-10-20"] = &dto.AvailabilityResponse{AvailableSlots: []slot.TimeSlot{slotAt(20, 9, true)}}
	w := newTestWizard(gateway, &fakeSubmitter{})

	// type
	assert.False(t, w.CanProceed())
	assert.ErrorIs(t, w.Next(), ErrStepIncomplete)
	require.NoError(t, w.SelectType(entity.AppointmentTypeChat))
	assert.True(t, w.CanProceed())
	require.NoError(t, w.Next())

	// date and time
	assert.False(t, w.CanProceed())
	assert.ErrorIs(t, w.Next(), ErrStepIncomplete)
	require.NoError(t, w.SelectDate(context.Background(), "2026-10-20"))
	w.WaitAvailability()
	require.NoError(t, w.SelectSlot(slotAt(20, 9, true).Start))
	assert.True(t, w.CanProceed())
	require.NoError(t, w.Next())

	// details
	assert.False(t, w.CanProceed())
	assert.ErrorIs(t, w.Next(), ErrStepIncomplete)
	require.NoError(t, w.ToggleSymptom("Angst"))
	assert.True(t, w.CanProceed())
	require.NoError(t, w.ToggleSymptom("Angst"))
	assert.False(t, w.CanProceed())
	require.NoError(t, w.ToggleSymptom("Angst"))
	require.NoError(t, w.Next())

	// confirmation
	assert.True(t, w.CanProceed())
	assert.ErrorIs(t, w.Next(), ErrNoNextStep)
	assert.Equal(t, StepConfirmation, w.Step())
}

func TestSelectType_SetsCanonicalDuration(t *testing.T) {
	w := newTestWizard(newFakeGateway(), &fakeSubmitter{})

	require.NoError(t, w.SelectType(entity.AppointmentTypePhoneCall))
	assert.Equal(t, 30, w.Data().Duration)
	require.NoError(t, w.SelectType(entity.AppointmentTypeInPerson))
	assert.Equal(t, 60, w.Data().Duration)

	assert.ErrorIs(t, w.SelectType("CARRIER_PIGEON"), ErrInvalidType)
	assert.Equal(t, entity.AppointmentTypeInPerson, w.Data().Type)
}

func TestBackAndGoTo_PreserveData(t *testing.T) {
	gateway := newFakeGateway()
	w := newTestWizard(gateway, &fakeSubmitter{})
	walkToConfirmation(t, w, gateway)
	before := w.Data()

	w.Back()
	assert.Equal(t, StepDetails, w.Step())
	require.NoError(t, w.GoTo(StepTypeSelection))
	w.Back()
	assert.Equal(t, StepTypeSelection, w.Step())
	assert.Equal(t, before, w.Data())

	require.NoError(t, w.GoTo(StepConfirmation))
	assert.Equal(t, StepConfirmation, w.Step())
}

func TestGoTo_OnlyReachedSteps(t *testing.T) {
	w := newTestWizard(newFakeGateway(), &fakeSubmitter{})
	require.NoError(t, w.SelectType(entity.AppointmentTypeChat))
	require.NoError(t, w.Next())

	assert.ErrorIs(t, w.GoTo(StepDetails), ErrStepNotReached)
	assert.ErrorIs(t, w.GoTo(0), ErrStepNotReached)
	require.NoError(t, w.GoTo(StepTypeSelection))
	require.NoError(t, w.GoTo(StepDateTime))
	assert.Equal(t, StepDateTime, w.HighestStep())
}

func TestSelectDate_OneRequestPerCall(t *testing.T) {
	gateway := newFakeGateway()
	w := newTestWizard(gateway, &fakeSubmitter{})

	require.NoError(t, w.SelectDate(context.Background(), "2026-10-20"))
	w.WaitAvailability()
	require.NoError(t, w.SelectDate(context.Background(), "2026-10-20"))
	w.WaitAvailability()
	require.NoError(t, w.SelectDate(context.Background(), "2026-10-21"))
	w.WaitAvailability()

	assert.Equal(t, []string{"2026-10-20", "2026-10-20", "2026-10-21"}, gateway.callDates())
}

func TestSelectDate_RejectsPastAndMalformed(t *testing.T) {
	gateway := newFakeGateway()
	w := newTestWizard(gateway, &fakeSubmitter{})

	assert.ErrorIs(t, w.SelectDate(context.Background(), "2026-10-18"), slot.ErrDateInPast)
	assert.ErrorIs(t, w.SelectDate(context.Background(), "20.10.2026"), slot.ErrInvalidDate)
	assert.Empty(t, gateway.callDates())

	require.NoError(t, w.SelectDate(context.Background(), "2026-10-19"))
	w.WaitAvailability()
}

func TestSelectDate_LatestResponseWins(t *testing.T) {
	gateway := newFakeGateway()
	gateway.responses["2026-10-20"] = &dto.AvailabilityResponse{Date: "2026-10-20", AvailableSlots: []slot.TimeSlot{slotAt(20, 9, true)}}
	gateway.responses["2026-10-21"] = &dto.AvailabilityResponse{Date: "2026-10-21", AvailableSlots: []slot.TimeSlot{slotAt(21, 14, true)}}
	first := make(chan struct{})
	second := make(chan struct{})
	gateway.gates["2026-10-20"] = first
	gateway.gates["2026-10-21"] = second
	w := newTestWizard(gateway, &fakeSubmitter{})

	require.NoError(t, w.SelectDate(context.Background(), "2026-10-20"))
	require.NoError(t, w.SelectDate(context.Background(), "2026-10-21"))

	assert.True(t, w.AvailabilityLoading())
	assert.Equal(t, slot.ViewLoading, w.Availability().State)
	assert.ErrorIs(t, w.SelectSlot(slotAt(21, 14, true).Start), ErrAvailabilityLoading)

	// the newer request resolves first, the stale one afterwards
	close(second)
	require.Eventually(t, func() bool { return !w.AvailabilityLoading() }, time.Second, time.Millisecond)
	close(first)
	w.WaitAvailability()

	a := w.Availability()
	assert.Equal(t, "2026-10-21", a.Date)
	require.Len(t, a.Slots, 1)
	assert.True(t, a.Slots[0].Start.Equal(slotAt(21, 14, true).Start))
	assert.ErrorIs(t, w.SelectSlot(slotAt(20, 9, true).Start), ErrSlotNotOffered)
	assert.NoError(t, w.SelectSlot(slotAt(21, 14, true).Start))
}

func TestAvailability_EmptyDayIsNotLoading(t *testing.T) {
	gateway := newFakeGateway()
	gateway.responses["2026-10-21"] = &dto.AvailabilityResponse{Date: "2026-10-21", AvailableSlots: []slot.TimeSlot{}}
	w := newTestWizard(gateway, &fakeSubmitter{})

	require.NoError(t, w.SelectDate(context.Background(), "2026-10-21"))
	w.WaitAvailability()

	a := w.Availability()
	assert.Equal(t, slot.ViewEmpty, a.State)
	assert.Empty(t, a.Slots)
	assert.NoError(t, a.Err)
}

func TestSelectSlot_OnlyAvailable(t *testing.T) {
	gateway := newFakeGateway()
	gateway.responses["2026-10-20"] = &dto.AvailabilityResponse{AvailableSlots: []slot.TimeSlot{slotAt(20, 9, true), slotAt(20, 10, false)}}
	w := newTestWizard(gateway, &fakeSubmitter{})

	require.NoError(t, w.SelectDate(context.Background(), "2026-10-20"))
	w.WaitAvailability()

	assert.ErrorIs(t, w.SelectSlot(slotAt(20, 10, false).Start), ErrSlotNotOffered)
	assert.ErrorIs(t, w.SelectSlot(slotAt(20, 11, true).Start), ErrSlotNotOffered)
	assert.Empty(t, w.Data().ScheduledAt)

	// an equal instant in another zone matches
	require.NoError(t, w.SelectSlot(slotAt(20, 9, true).Start.UTC()))
	assert.Equal(t, "2026-10-20T09:00:00+02:00", w.Data().ScheduledAt)
	assert.Len(t, w.Availability().Slots, 1)
}

func TestAvailabilityError_DoesNotBlockOtherSteps(t *testing.T) {
	gateway := newFakeGateway()
	gateway.err = errors.New("connection refused")
	w := newTestWizard(gateway, &fakeSubmitter{})

	require.NoError(t, w.SelectType(entity.AppointmentTypeChat))
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectDate(context.Background(), "2026-10-20"))
	w.WaitAvailability()

	assert.EqualError(t, w.AvailabilityError(), "connection refused")
	assert.Equal(t, slot.ViewEmpty, w.Availability().State)

	w.Back()
	require.NoError(t, w.SetNotes("still works"))
	require.NoError(t, w.GoTo(StepDateTime))
	assert.Equal(t, "still works", w.Data().Notes)
}

type emptyGateway struct{}

func (emptyGateway) GetAvailability(context.Context, uuid.UUID, string) (*dto.AvailabilityResponse, error) {
	return nil, nil
}

func TestSelectDate_NilResponseIsAnError(t *testing.T) {
	w := newTestWizard(emptyGateway{}, &fakeSubmitter{})

	require.NoError(t, w.SelectType(entity.AppointmentTypeChat))
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectDate(context.Background(), "2026-10-20"))
	w.WaitAvailability()

	assert.ErrorIs(t, w.AvailabilityError(), ErrNoAvailability)
	view := w.Availability()
	assert.Equal(t, slot.ViewEmpty, view.State)
	assert.Empty(t, view.Slots)
}

func TestSubmit_OnlyFromConfirmation(t *testing.T) {
	sub := &fakeSubmitter{}
	w := newTestWizard(newFakeGateway(), sub)

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotAtConfirmation)
	assert.Equal(t, int32(0), atomic.LoadInt32(&sub.calls))
}

func TestSubmit_SingleFlight(t *testing.T) {
	gateway := newFakeGateway()
	sub := &fakeSubmitter{release: make(chan struct{})}
	w := newTestWizard(gateway, sub)
	walkToConfirmation(t, w, gateway)

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, w.Submitting, time.Second, time.Millisecond)

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.Equal(t, StatusSubmitting, w.Status())

	close(sub.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sub.calls))
	assert.Equal(t, StatusSubmitted, w.Status())

	_, err = w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.ErrorIs(t, w.SetNotes("too late"), ErrAlreadySubmitted)
}

func TestSubmit_FailureKeepsDataAndAllowsRetry(t *testing.T) {
	gateway := newFakeGateway()
	sub := &fakeSubmitter{err: &client.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}}
	w := newTestWizard(gateway, sub)
	walkToConfirmation(t, w, gateway)
	before := w.Data()

	_, err := w.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, StepConfirmation, w.Step())
	assert.Equal(t, before, w.Data())
	assert.False(t, w.Submitting())
	assert.Equal(t, StatusFailed, w.Status())
	assert.Equal(t, err, w.LastError())

	sub.err = nil
	res, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Nil(t, w.LastError())
	assert.Equal(t, w.Advisor(), res.Advisor)
	assert.Equal(t, int32(2), atomic.LoadInt32(&sub.calls))
}

// End to end through the HTTP client: one POST with the wizard's data, then the
// submitted state on a 201.
func TestSubmit_PostsBookingOnce(t *testing.T) {
	var posts int32
	var got dto.CreateAppointmentRequest
	availableStart := slotAt(20, 9, true).Start

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data": dto.AvailabilityResponse{
					Date:           r.URL.Query().Get("date"),
					AvailableSlots: []slot.TimeSlot{{Start: availableStart, End: availableStart.Add(time.Hour), Available: true}},
				},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/appointments":
			atomic.AddInt32(&posts, 1)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    dto.AppointmentResponse{ID: uuid.New(), AdvisorID: got.AdvisorID, Type: got.Type, Status: "REQUESTED"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	api := client.New(&session.Session{BaseURL: srv.URL + "/api/v1", Token: "tok"}, discardLogger())
	w := newTestWizard(api, api)

	require.NoError(t, w.SelectType(entity.AppointmentTypeVideoCall))
	require.NoError(t, w.Next())
	require.NoError(t, w.SelectDate(context.Background(), "2026-10-20"))
	w.WaitAvailability()
	require.NoError(t, w.SelectSlot(availableStart))
	require.NoError(t, w.Next())
	require.NoError(t, w.SetSymptoms([]string{"Stress und Burnout"}))
	require.NoError(t, w.SetPriority(entity.PriorityRoutine))
	require.NoError(t, w.Next())

	res, err := w.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&posts))
	assert.Equal(t, w.Advisor().ID, got.AdvisorID)
	assert.Equal(t, "VIDEO_CALL", got.Type)
	assert.Equal(t, "2026-10-20T09:00:00+02:00", got.ScheduledAt)
	assert.Equal(t, 60, got.Duration)
	assert.Equal(t, []string{"Stress und Burnout"}, got.Symptoms)
	assert.Equal(t, "ROUTINE", got.Priority)

	assert.Equal(t, "REQUESTED", res.Appointment.Status)
	assert.Equal(t, StatusSubmitted, w.Status())
}

func TestDateOptions_UsesBookingWindow(t *testing.T) {
	w := New(&dto.AdvisorResponse{ID: uuid.New()}, newFakeGateway(), &fakeSubmitter{}, discardLogger(),
		WithClock(fixedNow), WithLocation(berlin), WithBookingWindow(7))

	opts := w.DateOptions()
	require.Len(t, opts, 7)
	assert.Equal(t, "2026-10-19", opts[0].Date)
	assert.True(t, opts[0].IsToday)
}
