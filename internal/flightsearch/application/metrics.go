package application

// Metrics recebe os contadores produzidos pelos manipuladores.
type Metrics interface {
	TicketsUpserted(count int)
	IngestFailed(outcome string)
	SearchCompleted(outcome string, solutions int)
}

const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

type nopMetrics struct{}

func (nopMetrics) TicketsUpserted(int)         {}
func (nopMetrics) IngestFailed(string)         {}
func (nopMetrics) SearchCompleted(string, int) {}

func NopMetrics() Metrics {
	return nopMetrics{}
}
