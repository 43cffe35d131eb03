package domain

import (
	"cmp"
	"slices"
	"time"
)

const (
	MinLayover = 3 * time.Hour
	MaxLayover = 24 * time.Hour
)

var (
	minLayoverSeconds = int64(MinLayover / time.Second)
	maxLayoverSeconds = int64(MaxLayover / time.Second)
)

// LayoverBounds devolve a faixa de escala, fechada, em segundos.
func LayoverBounds() (int64, int64) {
	return minLayoverSeconds, maxLayoverSeconds
}

// Connects informa se second pode seguir first: mesmo aeroporto e escala entre
// MinLayover e MaxLayover, ambos inclusivos.
func Connects(first, second Ticket) bool {
	if first.ArrivalCode != second.DepartureCode {
		return false
	}
	layover := second.DepartureTime - first.ArrivalTime
	return layover >= minLayoverSeconds && layover <= maxLayoverSeconds
}

type OneLegSolution struct {
	Ticket Ticket
}

func (s OneLegSolution) Solution() Solution {
	return Solution{
		IDs:           []string{s.Ticket.ID},
		Price:         s.Ticket.Price,
		DepartureTime: s.Ticket.DepartureTime,
	}
}

type TwoLegSolution struct {
	First  Ticket
	Second Ticket
}

func (s TwoLegSolution) Solution() Solution {
	return Solution{
		IDs:           []string{s.First.ID, s.Second.ID},
		Price:         s.First.Price + s.Second.Price,
		DepartureTime: s.First.DepartureTime,
	}
}

// Solution é um itinerário comprável. IDs na ordem dos trechos.
type Solution struct {
	IDs           []string `json:"ids"`
	Price         int64    `json:"price"`
	DepartureTime int64    `json:"-"`
}

// CompareSolutions ordena por preço, depois partida do primeiro trecho, depois ids;
// itinerários empatados ficam sempre na mesma ordem.
func CompareSolutions(a, b Solution) int {
	return cmp.Or(
		cmp.Compare(a.Price, b.Price),
		cmp.Compare(a.DepartureTime, b.DepartureTime),
		slices.Compare(a.IDs, b.IDs),
	)
}

// MergeSolutions ordena voos diretos e com conexão juntos e mantém os primeiros
// limit. As entradas não são alteradas.
func MergeSolutions(ones []OneLegSolution, twos []TwoLegSolution, limit int) []Solution {
	if limit <= 0 {
		return []Solution{}
	}

	merged := make([]Solution, 0, len(ones)+len(twos))
	for _, one := range ones {
		merged = append(merged, one.Solution())
	}
	for _, two := range twos {
		merged = append(merged, two.Solution())
	}

	slices.SortFunc(merged, CompareSolutions)

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
