package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
)

// BuildShareText formats the event summary sent to the chief when the
// secretary triggers the notify/share action.
func BuildShareText(e storage.Event) string {
	description := e.Description
	if description == "" {
		description = "Sem descrição."
	}
	return fmt.Sprintf(`📢 *CIAP PM/PA - Agenda Chefia*
🗓️ *Evento:* %s
📅 *Data:* %s
⏰ *Hora:* %s
👤 *Responsável:* %s
👥 *Participantes:* %s
📝 *Descrição:* %s
✍️ *Registrado por:* %s
--------------------------`,
		e.Title,
		e.StartTime.Format("02/01/2006"),
		e.StartTime.Format("15:04"),
		e.Responsible,
		strings.Join(e.Participants, ", "),
		description,
		e.CreatedBy,
	)
}

// ShareLink builds the messaging deep link carrying the share text.
// Delivery through it is fire and forget.
func ShareLink(text string) string {
	return "https://wa.me/?text=" + url.QueryEscape(text)
}
