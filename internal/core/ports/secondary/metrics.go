package secondary

import "time"

type MetricsRecorder interface {
	ObserveDispatch(language, outcome string, attempts int, elapsed time.Duration)
	ObserveGrade(status string, cases int, elapsed time.Duration)
}
