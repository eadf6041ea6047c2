package topics

const (
	// Eventos do engine (create, stake, resolve, claim, certificação)
	PredictionEvents = "prediction_events"

	// DLQ
	PredictionEventsDLQ = "prediction_events_dlq"
)
