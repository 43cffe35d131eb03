package application

import (
	"github.com/mateusmacedo/go-flights/internal/flightsearch/domain"
	pkgDomain "github.com/mateusmacedo/go-flights/pkg/domain"
)

const SearchSolutionsQueryName = "SearchSolutions"

type SearchSolutionsData struct {
	DepartureCode string `json:"departure_code"`
	ArrivalCode   string `json:"arrival_code"`
	DepartureDate string `json:"departure_date"`
	Limit         int    `json:"limit"`
}

// Criteria valida a busca e resolve a janela de datas.
func (d SearchSolutionsData) Criteria() (domain.SearchCriteria, error) {
	switch {
	case d.DepartureCode == "":
		return domain.SearchCriteria{}, domain.NewValidationError("departure_code", "must not be empty")
	case d.ArrivalCode == "":
		return domain.SearchCriteria{}, domain.NewValidationError("arrival_code", "must not be empty")
	case d.Limit <= 0:
		return domain.SearchCriteria{}, domain.NewValidationError("limit", "must be a positive integer")
	}

	window, err := domain.ResolveDateWindow(d.DepartureDate)
	if err != nil {
		return domain.SearchCriteria{}, err
	}

	return domain.SearchCriteria{
		DepartureCode: d.DepartureCode,
		ArrivalCode:   d.ArrivalCode,
		Window:        window,
		Limit:         d.Limit,
	}, nil
}

type SearchSolutionsResult struct {
	Solutions []domain.Solution `json:"solutions"`
}

type searchSolutionsQuery struct {
	data SearchSolutionsData
}

func (q searchSolutionsQuery) QueryName() string {
	return SearchSolutionsQueryName
}

func (q searchSolutionsQuery) Payload() SearchSolutionsData {
	return q.data
}

func NewSearchSolutionsQuery(data SearchSolutionsData) pkgDomain.Query[SearchSolutionsData] {
	return searchSolutionsQuery{data: data}
}
