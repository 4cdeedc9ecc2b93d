package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/client/models"
)

// event list selectors
const (
	listAll      = "all"
	listUpcoming = "upcoming"
	listPast     = "past"
)

// inputDateLayouts are accepted when typing dates; they are sent as RFC3339.
var inputDateLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}

func (a *App) ListEvents(ctx context.Context, which string) error {
	var (
		list []*models.Event
		err  error
	)
	switch which {
	case listUpcoming:
		list, err = a.eventSvc.Upcoming(ctx)
	case listPast:
		list, err = a.eventSvc.Past(ctx)
	default:
		list, err = a.eventSvc.List(ctx)
	}
	if err != nil {
		return err
	}
	printEventList(a.out, list)
	return nil
}

// Search asks for each filter; empty answers leave it out.
func (a *App) Search(ctx context.Context) error {
	var q models.SearchQuery
	prompts := []struct {
		prompt string
		dst    *string
	}{
		{"Text in title or description", &q.Text},
		{"Location", &q.Location},
		{"Starts on or after (YYYY-MM-DD)", &q.StartDate},
		{"Ends on or before (YYYY-MM-DD)", &q.EndDate},
		{"Minimum price", &q.MinPrice},
		{"Maximum price", &q.MaxPrice},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.prompt, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	free, err := getConfirmation(a.reader, "Only events with free places?", a.out)
	if err != nil {
		return err
	}
	q.HasAvailablePlaces = free

	list, err := a.eventSvc.Search(ctx, q)
	if err != nil {
		return err
	}
	printEventList(a.out, list)
	return nil
}

func (a *App) Show(ctx context.Context, id string) error {
	e, err := a.eventSvc.Get(ctx, id)
	if err != nil {
		return err
	}
	printEvent(a.out, e, a.currentUserID())
	return nil
}

func (a *App) Stats(ctx context.Context, id string) error {
	st, err := a.eventSvc.Statistics(ctx, id)
	if err != nil {
		return err
	}
	printStatistics(a.out, st)
	return nil
}

func (a *App) Participants(ctx context.Context, id string) error {
	p, err := a.eventSvc.Participants(ctx, id)
	if err != nil {
		return err
	}
	printParticipants(a.out, p)
	return nil
}

func (a *App) Join(ctx context.Context, id string) error {
	e, err := a.eventSvc.Join(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Joined %q (%d/%d places taken)\n", e.Title, len(e.Attendees), e.AvailablePlaces)
	return nil
}

func (a *App) Leave(ctx context.Context, id string) error {
	e, err := a.eventSvc.Leave(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Left %q\n", e.Title)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	ok, err := getConfirmation(a.reader, fmt.Sprintf("Delete event %s?", id), a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.eventSvc.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Event deleted")
	return nil
}

// Create asks for every field of a new event.
func (a *App) Create(ctx context.Context) error {
	in, err := a.readEventInput()
	if err != nil {
		return err
	}

	e, err := a.eventSvc.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created event %s\n", e.ID)
	return nil
}

// Edit asks for every field; empty answers keep the current value.
func (a *App) Edit(ctx context.Context, id string) error {
	in, err := a.readEventInput()
	if err != nil {
		return err
	}
	if in == (models.EventInput{}) {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	e, err := a.eventSvc.Update(ctx, id, in)
	if err != nil {
		return err
	}
	printEvent(a.out, e, a.currentUserID())
	return nil
}

func (a *App) UploadImage(ctx context.Context, id, path string) error {
	url, err := a.eventSvc.UploadImage(ctx, id, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Image uploaded: %s\n", url)
	return nil
}

func (a *App) currentUserID() string {
	if a.session == nil {
		return ""
	}
	return a.session.UserID
}

// readEventInput collects event fields. Empty answers are left unset, so
// the server reports missing fields on create and keeps them on update.
func (a *App) readEventInput() (models.EventInput, error) {
	var in models.EventInput

	text := func(prompt string) (*string, error) {
		v, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil || v == "" {
			return nil, err
		}
		return &v, nil
	}

	var err error
	if in.Title, err = text("Title"); err != nil {
		return in, err
	}

	desc, err := getMultiline(a.reader, "Description", a.out)
	if err != nil {
		return in, err
	}
	if desc != "" {
		in.Description = &desc
	}

	if in.Location, err = text("Location"); err != nil {
		return in, err
	}

	for _, f := range []struct {
		prompt string
		dst    **string
	}{
		{"Start (YYYY-MM-DD HH:MM, UTC)", &in.StartDate},
		{"End (YYYY-MM-DD HH:MM, UTC)", &in.EndDate},
	} {
		raw, err := text(f.prompt)
		if err != nil {
			return in, err
		}
		if raw != nil {
			d, err := parseInputDate(*raw)
			if err != nil {
				return in, err
			}
			raw = &d
		}
		*f.dst = raw
	}

	places, err := text("Available places")
	if err != nil {
		return in, err
	}
	if places != nil {
		n, err := strconv.Atoi(*places)
		if err != nil {
			return in, fmt.Errorf("available places must be a whole number: %q", *places)
		}
		in.AvailablePlaces = &n
	}

	price, err := getSimpleText(a.reader, "Price (empty for free)", a.out)
	if err != nil {
		return in, err
	}
	if price != "" {
		p, err := strconv.ParseFloat(price, 64)
		if err != nil {
			return in, fmt.Errorf("price must be a number: %q", price)
		}
		in.Price = &p
	}

	return in, nil
}

func parseInputDate(s string) (string, error) {
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339), nil
		}
	}
	return "", fmt.Errorf("unrecognised date %q, use YYYY-MM-DD HH:MM", s)
}
