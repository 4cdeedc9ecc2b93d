package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophevents/internal/client/client"
	"github.com/dmitrijs2005/gophevents/internal/client/models"
)

func printEventList(w io.Writer, list []*models.Event) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTART\tLOCATION\tPLACES\tPRICE")
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%.2f\n",
			e.ID, e.Title, e.StartDate, e.Location, len(e.Attendees), e.AvailablePlaces, e.Price)
	}
	_ = tw.Flush()
}

// printEvent shows one event; userID marks whether the viewer attends it.
func printEvent(w io.Writer, e *models.Event, userID string) {
	fmt.Fprintf(w, "%s  [%s]\n", e.Title, e.ID)
	fmt.Fprintf(w, "  When:      %s .. %s\n", e.StartDate, e.EndDate)
	fmt.Fprintf(w, "  Where:     %s\n", e.Location)
	fmt.Fprintf(w, "  Price:     %.2f\n", e.Price)
	fmt.Fprintf(w, "  Places:    %d taken of %d\n", len(e.Attendees), e.AvailablePlaces)
	fmt.Fprintf(w, "  Organizer: %s <%s>\n", e.Creator.Name, e.Creator.Email)
	if e.ImageURL != nil {
		fmt.Fprintf(w, "  Image:     %s\n", *e.ImageURL)
	}
	if userID != "" && e.IsAttending(userID) {
		fmt.Fprintln(w, "  You are attending")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, e.Description)
}

func printStatistics(w io.Writer, st *models.EventStatistics) {
	full := "no"
	if st.IsFull {
		full = "yes"
	}
	fmt.Fprintf(w, "Places: %d, attendees: %d, free: %d, occupancy: %.2f%%, full: %s\n",
		st.TotalPlaces, st.AttendeesCount, st.AvailablePlaces, st.OccupancyRate, full)
}

func printParticipants(w io.Writer, p *models.EventParticipants) {
	fmt.Fprintf(w, "%s: %d participant(s)\n", p.EventTitle, p.TotalParticipants)
	for _, u := range p.Participants {
		fmt.Fprintf(w, "  %s <%s>\n", u.Name, u.Email)
	}
}

// describeError turns an API failure into a line for the user.
func describeError(err error) string {
	if errors.Is(err, client.ErrUnavailable) {
		return "server unavailable, try again later"
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	if len(apiErr.Fields) == 0 {
		return apiErr.Message
	}

	fields := make([]string, 0, len(apiErr.Fields))
	for f := range apiErr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString(apiErr.Message)
	for _, f := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", f, strings.Join(apiErr.Fields[f], "; "))
	}
	return b.String()
}
