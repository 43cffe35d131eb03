package domain

import (
	"fmt"
	"time"
)

// DateLayout é o formato de data aceito nas buscas.
const DateLayout = "2006-01-02"

// DateWindow é um intervalo fechado de segundos epoch.
type DateWindow struct {
	Start int64
	End   int64
}

func (w DateWindow) Contains(instant int64) bool {
	return instant >= w.Start && instant <= w.End
}

// ResolveDateWindow converte uma data YYYY-MM-DD em [00:00:00, 23:59:59] daquele dia, em UTC.
func ResolveDateWindow(date string) (DateWindow, error) {
	day, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return DateWindow{}, NewValidationError("departure_date", fmt.Sprintf("%q is not a %s date", date, DateLayout))
	}

	start := day.Unix()
	return DateWindow{
		Start: start,
		End:   day.Add(24*time.Hour - time.Second).Unix(),
	}, nil
}
