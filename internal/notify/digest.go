package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
)

// BuildDigestText formats the morning agenda digest: every non-cancelled
// event of the day, ordered by start time.
func BuildDigestText(date time.Time, events []storage.Event) string {
	ordered := make([]storage.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartTime.Before(ordered[j].StartTime)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "📋 *CIAP PM/PA - Pauta do dia %s*\n", date.Format("02/01/2006"))
	count := 0
	for _, e := range ordered {
		if e.Status == storage.StatusCancelled {
			continue
		}
		count++
		emoji := e.Emoji
		if emoji == "" {
			emoji = "🗓️"
		}
		fmt.Fprintf(&b, "%s %s - %s (%s)\n", emoji, e.StartTime.Format("15:04"), e.Title, e.Responsible)
	}
	if count == 0 {
		b.WriteString("Sem compromissos registrados.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
