package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"advisor-booking/internal/client"
	"advisor-booking/internal/session"
	"advisor-booking/internal/wizard"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

func main() {
	defaultSession, err := session.DefaultPath()
	if err != nil {
		defaultSession = "session.yaml"
	}

	sessionPath := flag.String("session", defaultSession, "session file")
	baseURL := flag.String("base-url", "", "API base URL, stored in the session")
	token := flag.String("token", "", "bearer token, stored in the session")
	advisor := flag.String("advisor", "", "advisor ID to book")
	timezone := flag.String("timezone", "Europe/Berlin", "timezone dates are shown in")
	list := flag.Bool("list", false, "list my appointments and exit")
	date := flag.String("date", "", "with --list, only show this day (YYYY-MM-DD)")
	cancel := flag.String("cancel", "", "cancel the appointment with this ID and exit")
	verbose := flag.BoolP("verbose", "v", false, "log API calls")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	sess, err := session.Load(*sessionPath)
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}
	if flag.CommandLine.Changed("base-url") || flag.CommandLine.Changed("token") {
		if *baseURL != "" {
			sess.BaseURL = *baseURL
		}
		if flag.CommandLine.Changed("token") {
			sess.Token = *token
		}
		if err := sess.Save(*sessionPath); err != nil {
			log.Warnf("Failed to save session: %v", err)
		}
	}

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		log.Fatalf("Unknown timezone %q: %v", *timezone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(sess, log)

	switch {
	case *list:
		err = listAppointments(ctx, api, loc, *date)
	case *cancel != "":
		err = cancelAppointment(ctx, api, *cancel)
	default:
		err = book(ctx, api, log, loc, *advisor)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

func listAppointments(ctx context.Context, api *client.Client, loc *time.Location, date string) error {
	appointments, err := api.ListAppointments(ctx, date)
	if err != nil {
		return err
	}
	if len(appointments) == 0 {
		fmt.Println("No appointments.")
		return nil
	}
	for _, a := range appointments {
		fmt.Printf("%s  %s  %-10s %-11s %d min\n", a.ID, a.ScheduledAt.In(loc).Format("Mon 02.01.2006 15:04"), a.Type, a.Status, a.Duration)
	}
	return nil
}

func cancelAppointment(ctx context.Context, api *client.Client, raw string) error {
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid appointment ID %q", raw)
	}
	if err := api.CancelAppointment(ctx, id); err != nil {
		return err
	}
	fmt.Println("Appointment cancelled.")
	return nil
}

func book(ctx context.Context, api *client.Client, log *logrus.Logger, loc *time.Location, raw string) error {
	if raw == "" {
		return fmt.Errorf("--advisor is required")
	}
	advisorID, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid advisor ID %q", raw)
	}

	today := time.Now().In(loc).Format("2006-01-02")
	bc, err := api.LoadBookingContext(ctx, advisorID, today)
	if err != nil {
		return err
	}

	w := wizard.New(bc.Advisor, api, api, log, wizard.WithLocation(loc))
	p := newPrompter(os.Stdin, os.Stdout, loc)
	p.printAdvisor(bc.Advisor, bc.Availability)

	res, err := p.run(ctx, w)
	if err != nil {
		return err
	}
	p.printConfirmation(res)
	return nil
}

func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case client.IsNotFound(err):
		return "Not found."
	case client.IsConflict(err):
		return "That time slot was just taken. Please pick another one."
	}
	return "Error: " + err.Error()
}
