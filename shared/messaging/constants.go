package messaging

// Exchange names.
const (
	// JobEventsExchange is a topic exchange; routing keys are job.<account_id>.<event_type>.
	JobEventsExchange = "job_events"
	// TemplateUpdatesExchange fans template changes out to every reader of the legacy prompt table.
	TemplateUpdatesExchange = "template_updates"
)

const (
	exchangeTypeTopic  = "topic"
	exchangeTypeFanout = "fanout"

	// JobEventsBindingAll matches every job event.
	JobEventsBindingAll = "job.#"
)
