package textparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCascade(t *testing.T, c Cascade, text string) (string, float64, string) {
	t.Helper()
	f, name := c.Run(NewDocument(text, thursday))
	if f == nil {
		return "", 0, ""
	}
	return f.Value, f.Confidence, name
}

func TestTitleCascade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		want     string
		wantConf float64
	}{
		{"cut before schedule", "Jazz Night next Friday at 8pm at The Horns, free entry", "Jazz Night", 90},
		{"all caps", "SUMMER FETE\nSaturday 14th March", "Summer Fete", 90},
		{"skips contact and links", "info@quiz.org\nwww.quiz.org\nQuiz", "Quiz", 70},
		{"skips date-only line", "Friday 14th March\nBook Swap Meetup", "Book Swap Meetup", 90},
		{"markdown", "## **Open Mic Night**\nbring a guitar", "Open Mic Night", 90},
		{"too short", "Hi\nYoga in the Park", "Yoga in the Park", 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, conf, _ := runCascade(t, titleCascade(), tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantConf, conf)
		})
	}
}

func TestDescriptionCascade(t *testing.T) {
	t.Parallel()

	doc := NewDocument("Jazz Night\nCome and enjoy live music with friends.\nFriday 14th March\ncontact: a@b.com\n#jazz", thursday)
	require.Equal(t, 0, doc.TitleLine)

	f, _ := descriptionCascade().Run(doc)
	require.NotNil(t, f)
	assert.Equal(t, "Come and enjoy live music with friends.", f.Value)
	assert.Equal(t, 80.0, f.Confidence)

	doc = NewDocument("Jazz Night\nBring chairs", thursday)
	f, _ = descriptionCascade().Run(doc)
	require.NotNil(t, f)
	assert.Equal(t, 60.0, f.Confidence)
}

func TestDescriptionCascade_Truncates(t *testing.T) {
	t.Parallel()

	long := make([]rune, 700)
	for i := range long {
		long[i] = 'é'
	}
	doc := NewDocument("Title Line\n"+string(long), thursday)
	doc.TitleLine = 0
	f := matchRemainingLines(doc)
	require.NotNil(t, f)
	assert.Equal(t, MaxDescriptionLen, len([]rune(f.Value)))
}

func TestLocationCascade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		want     string
		wantConf float64
		matcher  string
	}{
		{"labelled", "Craft Fair\nVenue: St Mary's Hall, High Street", "St Mary's Hall, High Street", 85, "labelled"},
		{"held at", "Summer fete held at the village green on Saturday", "the village green", 85, "held_at"},
		{"at name", "Jazz Night next Friday at 8pm at The Horns, free entry", "The Horns", 85, "at_name"},
		{"at name stops at weekday", "Quiz at The Red Lion on Friday", "The Red Lion", 85, "at_name"},
		{"at weekday skipped", "Meet at Noon\nCommunity Centre, Mill Road", "Community Centre, Mill Road", 75, "venue_keyword_line"},
		{"at holiday skipped", "Quiz at Christmas", "", 0, ""},
		{"at holiday eve skipped", "Carols at Christmas Eve\nParish Hall, Church Lane", "Parish Hall, Church Lane", 75, "venue_keyword_line"},
		{"none", "something happening soon", "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, conf, name := runCascade(t, locationCascade(), tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantConf, conf)
			assert.Equal(t, tt.matcher, name)
		})
	}
}

func TestOrganizerCascade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		want    string
		matcher string
	}{
		{"hosted by", "Quiz night hosted by Anytown Rotary Club at The Bell", "Anytown Rotary Club", "hosted_by"},
		{"organised by", "Organised by Friends of the Park", "Friends of the Park", "hosted_by"},
		{"by", "Talk by Dr Jane Smith on Monday", "Dr Jane Smith", "by"},
		{"from", "Cakes from Anytown Scouts", "Anytown Scouts", "from"},
		{"calendar word skipped", "Open from Friday", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, conf, name := runCascade(t, organizerCascade(), tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.matcher, name)
			if tt.want != "" {
				assert.Equal(t, 80.0, conf)
			}
		})
	}
}

func TestTicketCascade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		want    string
		matcher string
	}{
		{"range", "Tickets £5 - £10", "£5 - £10", "price_range"},
		{"free entry", "free entry all night", "free entry", "free"},
		{"no charge", "No charge, donations welcome", "No charge", "free"},
		{"advance and door", "£5 advance, £7 on the door", "£5 advance / £7 on the door", "advance_door"},
		{"labelled", "Entry: pay what you can", "pay what you can", "labelled"},
		{"single", "Only £8 per person", "£8 per person", "single_price"},
		{"none", "bring a friend", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, conf, name := runCascade(t, ticketCascade(), tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.matcher, name)
			if tt.want != "" {
				assert.Equal(t, 85.0, conf)
			}
		})
	}
}

func TestContactAndWebsite(t *testing.T) {
	t.Parallel()

	got, conf, _ := runCascade(t, contactCascade(), "Call 07700 900123 or email info@jazz.org")
	assert.Equal(t, "info@jazz.org, 07700 900123", got)
	assert.Equal(t, 90.0, conf)

	got, _, _ = runCascade(t, contactCascade(), "Call 12345")
	assert.Empty(t, got)

	got, conf, _ = runCascade(t, websiteCascade(), "More at www.jazz.org/tickets.")
	assert.Equal(t, "https://www.jazz.org/tickets", got)
	assert.Equal(t, 95.0, conf)

	got, _, _ = runCascade(t, websiteCascade(), "See http://example.com/a")
	assert.Equal(t, "http://example.com/a", got)

	got, _, _ = runCascade(t, websiteCascade(), "email info@jazz.org")
	assert.Empty(t, got)
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://jazz.org", NormalizeURL("jazz.org"))
	assert.Equal(t, "HTTP://jazz.org", NormalizeURL("HTTP://jazz.org"))
	assert.Equal(t, "", NormalizeURL("  "))
}

func TestCascade_FirstMatchWins(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"relative", "explicit"}, DateCascade().Names())
	assert.Equal(t, []string{"price_range", "free", "advance_door", "labelled", "single_price"}, ticketCascade().Names())

	// Both phases could match; the relative phrase wins.
	f, name := DateCascade().Run(NewDocument("tomorrow, not 25/12/2026", thursday))
	require.NotNil(t, f)
	assert.Equal(t, "relative", name)
	assert.Equal(t, "2026-10-16", f.Value)
}
