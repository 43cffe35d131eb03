package infrastructure

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-flights/internal/flightsearch/domain"
)

type repositoryHarness struct {
	repo     domain.TicketRepository
	snapshot func() map[string]domain.Ticket
}

const testDate = "2018-11-20"

func testWindow(t *testing.T) domain.DateWindow {
	t.Helper()
	window, err := domain.ResolveDateWindow(testDate)
	require.NoError(t, err)
	return window
}

func ticketAt(id, from, to string, dep, arr, price int64) domain.Ticket {
	return domain.Ticket{ID: id, DepartureCode: from, ArrivalCode: to, DepartureTime: dep, ArrivalTime: arr, Price: price}
}

func directIDs(solutions []domain.OneLegSolution) []string {
	ids := make([]string, 0, len(solutions))
	for _, s := range solutions {
		ids = append(ids, s.Ticket.ID)
	}
	return ids
}

func connectionIDs(solutions []domain.TwoLegSolution) [][]string {
	ids := make([][]string, 0, len(solutions))
	for _, s := range solutions {
		ids = append(ids, []string{s.First.ID, s.Second.ID})
	}
	return ids
}

// runTicketRepositoryContract verifica o comportamento comum a todo TicketRepository.
func runTicketRepositoryContract(t *testing.T, newHarness func(t *testing.T) repositoryHarness) {
	ctx := context.Background()

	t.Run("upsert is idempotent", func(t *testing.T) {
		h := newHarness(t)
		base := testWindow(t).Start
		batch := []domain.Ticket{
			ticketAt("A", "AAA", "BBB", base, base+3600, 100),
			ticketAt("B", "BBB", "CCC", base+14400, base+18000, 50),
		}

		require.NoError(t, h.repo.UpsertBatch(ctx, batch))
		once := h.snapshot()
		require.NoError(t, h.repo.UpsertBatch(ctx, batch))

		assert.Equal(t, once, h.snapshot())
		assert.Len(t, once, 2)
	})

	t.Run("upsert replaces every non-id field", func(t *testing.T) {
		h := newHarness(t)
		base := testWindow(t).Start

		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{ticketAt("A", "AAA", "BBB", base, base+3600, 100)}))
		updated := ticketAt("A", "DDD", "EEE", base+60, base+7200, 75)
		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{updated}))

		assert.Equal(t, map[string]domain.Ticket{"A": updated}, h.snapshot())
	})

	t.Run("repeated id inside a batch keeps the last one", func(t *testing.T) {
		h := newHarness(t)
		base := testWindow(t).Start
		last := ticketAt("A", "AAA", "BBB", base, base+3600, 7)

		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{
			ticketAt("A", "AAA", "BBB", base, base+3600, 100),
			last,
		}))

		assert.Equal(t, map[string]domain.Ticket{"A": last}, h.snapshot())
	})

	t.Run("long ids are stored as given", func(t *testing.T) {
		h := newHarness(t)
		base := testWindow(t).Start
		long := ticketAt(strings.Repeat("id", 150), "AAA", "BBB", base, base+3600, 100)

		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{long}))

		assert.Equal(t, map[string]domain.Ticket{long.ID: long}, h.snapshot())
	})

	t.Run("invalid batch leaves the store untouched", func(t *testing.T) {
		h := newHarness(t)
		base := testWindow(t).Start
		stored := ticketAt("A", "AAA", "BBB", base, base+3600, 100)
		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{stored}))

		err := h.repo.UpsertBatch(ctx, []domain.Ticket{
			ticketAt("A", "AAA", "BBB", base, base+3600, 1),
			ticketAt("X", "AAA", "BBB", base+3600, base+3600, 1),
		})
		require.Error(t, err)
		assert.True(t, domain.IsValidationError(err))
		assert.Equal(t, map[string]domain.Ticket{"A": stored}, h.snapshot())

		err = h.repo.UpsertBatch(ctx, nil)
		assert.True(t, domain.IsValidationError(err))
	})

	t.Run("direct search matches route and window exactly", func(t *testing.T) {
		h := newHarness(t)
		window := testWindow(t)
		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{
			ticketAt("start", "AAA", "CCC", window.Start, window.Start+3600, 300),
			ticketAt("end", "AAA", "CCC", window.End, window.End+3600, 100),
			ticketAt("mid", "AAA", "CCC", window.Start+40000, window.Start+43600, 200),
			ticketAt("before", "AAA", "CCC", window.Start-1, window.Start+3600, 1),
			ticketAt("after", "AAA", "CCC", window.End+1, window.End+3600, 1),
			ticketAt("other-arrival", "AAA", "DDD", window.Start+10, window.Start+3600, 1),
			ticketAt("other-departure", "BBB", "CCC", window.Start+10, window.Start+3600, 1),
		}))

		solutions, err := h.repo.FindDirect(ctx, domain.SearchCriteria{
			DepartureCode: "AAA",
			ArrivalCode:   "CCC",
			Window:        window,
			Limit:         10,
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"start", "mid", "end"}, directIDs(solutions))
	})

	t.Run("direct cap keeps the cheapest tickets", func(t *testing.T) {
		h := newHarness(t)
		base := testWindow(t).Start
		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{
			ticketAt("p30", "AAA", "CCC", base+10, base+100, 30),
			ticketAt("p10", "AAA", "CCC", base+20, base+100, 10),
			ticketAt("p20", "AAA", "CCC", base+30, base+100, 20),
		}))

		solutions, err := h.repo.FindDirect(ctx, domain.SearchCriteria{
			DepartureCode: "AAA", ArrivalCode: "CCC", Window: testWindow(t), Limit: 2,
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p10", "p20"}, directIDs(solutions))
	})

	t.Run("connection layover boundaries", func(t *testing.T) {
		h := newHarness(t)
		base := testWindow(t).Start
		arrival := base + 3600
		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{
			ticketAt("A", "XXX", "YYY", base, arrival, 100),
			ticketAt("L10799", "YYY", "ZZZ", arrival+10799, arrival+20000, 1),
			ticketAt("L10800", "YYY", "ZZZ", arrival+10800, arrival+20000, 2),
			ticketAt("L86400", "YYY", "ZZZ", arrival+86400, arrival+90000, 3),
			ticketAt("L86401", "YYY", "ZZZ", arrival+86401, arrival+90000, 4),
			ticketAt("wrong-airport", "QQQ", "ZZZ", arrival+20000, arrival+30000, 1),
		}))

		solutions, err := h.repo.FindConnections(ctx, domain.SearchCriteria{
			DepartureCode: "XXX", ArrivalCode: "ZZZ", Window: testWindow(t), Limit: 10,
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, [][]string{{"A", "L10800"}, {"A", "L86400"}}, connectionIDs(solutions))

		for _, s := range solutions {
			assert.Equal(t, s.First.Price+s.Second.Price, s.Solution().Price)
		}
	})

	t.Run("connection pair carries both legs", func(t *testing.T) {
		h := newHarness(t)
		base := testWindow(t).Start
		a := ticketAt("A", "XXX", "YYY", base, base+3600, 100)
		b := ticketAt("B", "YYY", "ZZZ", base+14400, base+18000, 50)
		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{a, b}))

		solutions, err := h.repo.FindConnections(ctx, domain.SearchCriteria{
			DepartureCode: "XXX", ArrivalCode: "ZZZ", Window: testWindow(t), Limit: 10,
		})
		require.NoError(t, err)
		require.Len(t, solutions, 1)
		assert.Equal(t, domain.TwoLegSolution{First: a, Second: b}, solutions[0])
		assert.Equal(t, int64(150), solutions[0].Solution().Price)
	})

	t.Run("window bounds only the first leg", func(t *testing.T) {
		h := newHarness(t)
		window := testWindow(t)
		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{
			ticketAt("late-first", "XXX", "YYY", window.End-3600, window.End, 100),
			ticketAt("next-day-second", "YYY", "ZZZ", window.End+10800, window.End+14400, 50),
			ticketAt("early-first", "XXX", "YYY", window.Start-7200, window.Start-3600, 10),
			ticketAt("same-day-second", "YYY", "ZZZ", window.Start+7200, window.Start+9000, 10),
		}))

		solutions, err := h.repo.FindConnections(ctx, domain.SearchCriteria{
			DepartureCode: "XXX", ArrivalCode: "ZZZ", Window: window, Limit: 10,
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, [][]string{{"late-first", "next-day-second"}}, connectionIDs(solutions))
	})

	t.Run("connection cap keeps the cheapest pairs", func(t *testing.T) {
		h := newHarness(t)
		base := testWindow(t).Start
		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{
			ticketAt("A", "XXX", "YYY", base, base+3600, 100),
			ticketAt("B1", "YYY", "ZZZ", base+14400, base+18000, 90),
			ticketAt("B2", "YYY", "ZZZ", base+15000, base+18000, 10),
			ticketAt("B3", "YYY", "ZZZ", base+16000, base+18000, 50),
		}))

		solutions, err := h.repo.FindConnections(ctx, domain.SearchCriteria{
			DepartureCode: "XXX", ArrivalCode: "ZZZ", Window: testWindow(t), Limit: 2,
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, [][]string{{"A", "B2"}, {"A", "B3"}}, connectionIDs(solutions))
	})

	t.Run("zero limit finds nothing", func(t *testing.T) {
		h := newHarness(t)
		base := testWindow(t).Start
		require.NoError(t, h.repo.UpsertBatch(ctx, []domain.Ticket{
			ticketAt("C", "AAA", "CCC", base, base+3600, 100),
		}))

		direct, err := h.repo.FindDirect(ctx, domain.SearchCriteria{
			DepartureCode: "AAA", ArrivalCode: "CCC", Window: testWindow(t), Limit: 0,
		})
		require.NoError(t, err)
		assert.Empty(t, direct)

		connections, err := h.repo.FindConnections(ctx, domain.SearchCriteria{
			DepartureCode: "AAA", ArrivalCode: "CCC", Window: testWindow(t), Limit: 0,
		})
		require.NoError(t, err)
		assert.Empty(t, connections)
	})
}
