package command

import (
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
)

// publishEvents fans events out after a successful persist. Event delivery
// never affects the outcome of the command that produced them.
func publishEvents(publisher shared.EventPublisher, events []shared.Event) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		_ = publisher.Publish(event)
	}
}
