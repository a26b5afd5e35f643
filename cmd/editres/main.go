// Command editres edits one reservation through the API the way the edit
// page does: load, apply changes, validate, submit, then follow the redirect.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-realtime-reservations.git/internal/config"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/editflow"
	"github.com/ariefcatur/go-realtime-reservations.git/internal/reservations"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	id := flag.Int64("id", 0, "reservation id")
	name := flag.String("name", "", "customer name")
	phone := flag.String("phone", "", "phone number")
	date := flag.String("date", "", "reservation date (YYYY-MM-DD)")
	clock := flag.String("time", "", "reservation time (HH:MM, 24-hour)")
	party := flag.String("party", "", "party size")
	requests := flag.String("requests", "", "special requests")
	flag.Parse()
	if *id <= 0 {
		fmt.Fprintln(os.Stderr, "usage: editres -id N [-name ...] [-phone ...] [-date ...] [-time ...] [-party ...] [-requests ...]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := editflow.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	session := editflow.New(*id, client, client, editflow.WithDelay(cfg.NotifyDelay))
	defer session.Close()

	if err := session.Load(ctx); err != nil {
		fmt.Fprintln(os.Stderr, session.Error())
		fmt.Fprintf(os.Stderr, "Go back to reservation details: %s\n", session.DetailPath())
		os.Exit(1)
	}

	form := session.Form()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			form.CustomerName = *name
		case "phone":
			form.Phone = *phone
		case "date":
			form.ReservationDate = *date
		case "time":
			form.ReservationTime = *clock
		case "party":
			form.PartySize = reservations.Numeric(*party)
		case "requests":
			form.SpecialRequests = requests
		}
	})

	err = session.Submit(ctx, form)
	var ve *reservations.ValidationError
	switch {
	case errors.As(err, &ve):
		for _, f := range ve.Fields {
			fmt.Fprintf(os.Stderr, "%s: %s\n", f.Field, f.Message)
		}
		os.Exit(1)
	case err != nil:
		printNotification(session.Notification())
		if !errors.As(err, new(*editflow.SubmitFailure)) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	printNotification(session.Notification())
	select {
	case <-session.Done():
		fmt.Println(session.Redirect())
	case <-ctx.Done():
	}
}

func printNotification(n editflow.Notification) {
	if n.None() {
		return
	}
	out := os.Stdout
	if n.Kind == editflow.KindError {
		out = os.Stderr
	}
	fmt.Fprintf(out, "%s: %s\n", n.Title, n.Message)
}
