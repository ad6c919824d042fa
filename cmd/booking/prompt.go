package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/domain/entity"
	"advisor-booking/internal/slot"
	"advisor-booking/internal/wizard"
)

var errAborted = errors.New("booking aborted")

var typeLabels = map[entity.AppointmentType]string{
	entity.AppointmentTypeVideoCall: "Video call",
	entity.AppointmentTypePhoneCall: "Phone call",
	entity.AppointmentTypeInPerson:  "In person",
	entity.AppointmentTypeChat:      "Chat",
}

var priorities = []entity.Priority{entity.PriorityRoutine, entity.PriorityUrgent, entity.PriorityEmergency}

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
	loc *time.Location
}

func newPrompter(in io.Reader, out io.Writer, loc *time.Location) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out, loc: loc}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s ", question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errAborted
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// choose asks for a 1-based index; "b" means back.
func (p *prompter) choose(question string, n int) (int, bool, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return 0, false, err
		}
		if answer == "b" {
			return 0, true, nil
		}
		i, err := strconv.Atoi(answer)
		if err == nil && i >= 1 && i <= n {
			return i - 1, false, nil
		}
		fmt.Fprintf(p.out, "Please enter a number between 1 and %d, or b to go back.\n", n)
	}
}

func (p *prompter) printAdvisor(a *dto.AdvisorResponse, today *dto.AvailabilityResponse) {
	fmt.Fprintf(p.out, "\n%s, %s (rating %.1f, %d years)\n", a.Name, a.Specialization, a.Rating, a.Experience)
	if len(a.Languages) > 0 {
		fmt.Fprintf(p.out, "Languages: %s\n", strings.Join(a.Languages, ", "))
	}
	if today != nil {
		fmt.Fprintf(p.out, "Free slots today: %d\n", len(slot.Selectable(today.AvailableSlots)))
	} else {
		fmt.Fprintln(p.out, "Today's availability could not be loaded; you can still pick a date below.")
	}
	if !a.Available {
		fmt.Fprintln(p.out, "This advisor is currently not taking new appointments.")
	}
}

func (p *prompter) run(ctx context.Context, w *wizard.Wizard) (*wizard.Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fmt.Fprintf(p.out, "\nStep %d of 4: %s\n", w.Step(), w.Step())

		var err error
		switch w.Step() {
		case wizard.StepTypeSelection:
			err = p.typeStep(w)
		case wizard.StepDateTime:
			err = p.dateTimeStep(ctx, w)
		case wizard.StepDetails:
			err = p.detailsStep(w)
		case wizard.StepConfirmation:
			var res *wizard.Result
			res, err = p.confirmationStep(ctx, w)
			if res != nil {
				return res, nil
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *prompter) typeStep(w *wizard.Wizard) error {
	for i, t := range entity.AppointmentTypes {
		fmt.Fprintf(p.out, "  %d) %s (%d min)\n", i+1, typeLabels[t], t.CanonicalDuration())
	}
	i, back, err := p.choose("Appointment type:", len(entity.AppointmentTypes))
	if err != nil || back {
		return err
	}
	if err := w.SelectType(entity.AppointmentTypes[i]); err != nil {
		return err
	}
	return w.Next()
}

func (p *prompter) dateTimeStep(ctx context.Context, w *wizard.Wizard) error {
	opts := w.DateOptions()
	for i, o := range opts {
		label := o.Label
		if o.IsToday {
			label += " (today)"
		}
		fmt.Fprintf(p.out, "  %2d) %s\n", i+1, label)
	}
	i, back, err := p.choose("Date:", len(opts))
	if err != nil {
		return err
	}
	if back {
		w.Back()
		return nil
	}

	if err := w.SelectDate(ctx, opts[i].Date); err != nil {
		return err
	}
	fmt.Fprintln(p.out, "Loading available times...")
	w.WaitAvailability()

	a := w.Availability()
	if a.Err != nil {
		fmt.Fprintf(p.out, "Could not load available times: %v\n", a.Err)
		return nil
	}
	if a.State == slot.ViewEmpty {
		fmt.Fprintln(p.out, "No free slots on this day. Please choose another date.")
		return nil
	}

	for j, s := range a.Slots {
		fmt.Fprintf(p.out, "  %d) %s - %s\n", j+1, s.Start.In(p.loc).Format("15:04"), s.End.In(p.loc).Format("15:04"))
	}
	j, back, err := p.choose("Time:", len(a.Slots))
	if err != nil || back {
		return err
	}
	if err := w.SelectSlot(a.Slots[j].Start); err != nil {
		fmt.Fprintf(p.out, "%v\n", err)
		return nil
	}
	return w.Next()
}

func (p *prompter) detailsStep(w *wizard.Wizard) error {
	answer, err := p.ask("Symptoms or topics (comma separated, b to go back):")
	if err != nil {
		return err
	}
	if answer == "b" {
		w.Back()
		return nil
	}
	parts := strings.Split(answer, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if err := w.SetSymptoms(parts); err != nil {
		return err
	}
	if !w.CanProceed() {
		fmt.Fprintln(p.out, "Please name at least one symptom or topic.")
		return nil
	}

	notes, err := p.ask("Notes for the advisor (optional):")
	if err != nil {
		return err
	}
	if err := w.SetNotes(notes); err != nil {
		return err
	}

	for i, pr := range priorities {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, pr)
	}
	i, back, err := p.choose("Priority:", len(priorities))
	if err != nil {
		return err
	}
	if !back {
		if err := w.SetPriority(priorities[i]); err != nil {
			return err
		}
	}
	return w.Next()
}

func (p *prompter) confirmationStep(ctx context.Context, w *wizard.Wizard) (*wizard.Result, error) {
	d := w.Data()
	scheduled, _ := time.Parse(time.RFC3339, d.ScheduledAt)

	fmt.Fprintf(p.out, "  Advisor:  %s\n", w.Advisor().Name)
	fmt.Fprintf(p.out, "  Type:     %s (%d min)\n", typeLabels[d.Type], d.Duration)
	fmt.Fprintf(p.out, "  When:     %s\n", scheduled.In(p.loc).Format("Monday 02.01.2006 15:04"))
	fmt.Fprintf(p.out, "  Symptoms: %s\n", strings.Join(d.Symptoms, ", "))
	if d.Notes != "" {
		fmt.Fprintf(p.out, "  Notes:    %s\n", d.Notes)
	}
	fmt.Fprintf(p.out, "  Priority: %s\n", d.Priority)

	answer, err := p.ask("Book this appointment? [y = book, 1-3 = edit step, b = back, q = quit]")
	if err != nil {
		return nil, err
	}
	switch answer {
	case "y", "Y":
	case "b":
		w.Back()
		return nil, nil
	case "q":
		return nil, errAborted
	case "1", "2", "3":
		n, _ := strconv.Atoi(answer)
		return nil, w.GoTo(wizard.Step(n))
	default:
		return nil, nil
	}

	res, err := w.Submit(ctx)
	if err != nil {
		fmt.Fprintf(p.out, "Booking failed: %s\nYour details are kept, you can try again.\n", describe(err))
		return nil, nil
	}
	return res, nil
}

func (p *prompter) printConfirmation(res *wizard.Result) {
	a := res.Appointment
	fmt.Fprintf(p.out, "\nBooked! Appointment %s with %s on %s, status %s.\n",
		a.ID, res.Advisor.Name, a.ScheduledAt.In(p.loc).Format("Mon 02.01.2006 15:04"), a.Status)
}
