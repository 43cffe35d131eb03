package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leg(id, from, to string, dep, arr, price int64) Ticket {
	return Ticket{ID: id, DepartureCode: from, ArrivalCode: to, DepartureTime: dep, ArrivalTime: arr, Price: price}
}

func TestConnects_LayoverBoundaries(t *testing.T) {
	first := leg("A", "XXX", "YYY", 0, 3600, 10)

	testCases := []struct {
		name    string
		dep     int64
		connect bool
	}{
		{name: "layover 10799", dep: 3600 + 10799, connect: false},
		{name: "layover 10800", dep: 3600 + 10800, connect: true},
		{name: "layover 86400", dep: 3600 + 86400, connect: true},
		{name: "layover 86401", dep: 3600 + 86401, connect: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			second := leg("B", "YYY", "ZZZ", tc.dep, tc.dep+3600, 10)
			assert.Equal(t, tc.connect, Connects(first, second))
		})
	}
}

func TestConnects_RequiresSameAirport(t *testing.T) {
	first := leg("A", "XXX", "YYY", 0, 3600, 10)
	second := leg("B", "QQQ", "ZZZ", 14400, 18000, 10)
	assert.False(t, Connects(first, second))
}

func TestTwoLegSolution(t *testing.T) {
	two := TwoLegSolution{
		First:  leg("A", "XXX", "YYY", 0, 3600, 100),
		Second: leg("B", "YYY", "ZZZ", 14400, 18000, 50),
	}

	solution := two.Solution()
	assert.Equal(t, []string{"A", "B"}, solution.IDs)
	assert.Equal(t, int64(150), solution.Price)
	assert.Equal(t, int64(0), solution.DepartureTime)
}

func TestTwoLegSolution_MaxPricesDoNotOverflow(t *testing.T) {
	solution := TwoLegSolution{
		First:  leg("A", "XXX", "YYY", 0, 3600, MaxPrice),
		Second: leg("B", "YYY", "ZZZ", 14400, 18000, MaxPrice),
	}.Solution()

	assert.Positive(t, solution.Price)
	assert.Equal(t, int64(MaxPrice)*2, solution.Price)
}

func TestMergeSolutions_EndToEndExample(t *testing.T) {
	a := leg("A", "AAA", "BBB", 0, 3600, 100)
	b := leg("B", "BBB", "CCC", 14400, 18000, 50)
	c := leg("C", "AAA", "CCC", 1000, 5000, 200)

	merged := MergeSolutions(
		[]OneLegSolution{{Ticket: c}},
		[]TwoLegSolution{{First: a, Second: b}},
		2,
	)

	require.Len(t, merged, 2)
	assert.Equal(t, []string{"A", "B"}, merged[0].IDs)
	assert.Equal(t, int64(150), merged[0].Price)
	assert.Equal(t, []string{"C"}, merged[1].IDs)
	assert.Equal(t, int64(200), merged[1].Price)
}

func TestMergeSolutions_TiesBrokenByDepartureTime(t *testing.T) {
	late := leg("late", "AAA", "CCC", 5000, 9000, 100)
	early := leg("early", "AAA", "CCC", 1000, 4000, 100)
	cheap := leg("cheap", "AAA", "CCC", 9000, 12000, 10)

	merged := MergeSolutions([]OneLegSolution{{Ticket: late}, {Ticket: early}, {Ticket: cheap}}, nil, 10)

	ids := make([]string, 0, len(merged))
	for _, s := range merged {
		ids = append(ids, s.IDs[0])
	}
	assert.Equal(t, []string{"cheap", "early", "late"}, ids)
}

func TestMergeSolutions_FullTieIsDeterministic(t *testing.T) {
	x := leg("x", "AAA", "CCC", 1000, 4000, 100)
	y := leg("y", "AAA", "CCC", 1000, 4000, 100)

	first := MergeSolutions([]OneLegSolution{{Ticket: y}, {Ticket: x}}, nil, 2)
	second := MergeSolutions([]OneLegSolution{{Ticket: x}, {Ticket: y}}, nil, 2)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"x"}, first[0].IDs)
}

func TestMergeSolutions_Limits(t *testing.T) {
	ones := []OneLegSolution{
		{Ticket: leg("1", "AAA", "CCC", 0, 10, 30)},
		{Ticket: leg("2", "AAA", "CCC", 0, 10, 10)},
		{Ticket: leg("3", "AAA", "CCC", 0, 10, 20)},
	}

	t.Run("zero", func(t *testing.T) {
		merged := MergeSolutions(ones, nil, 0)
		assert.NotNil(t, merged)
		assert.Empty(t, merged)
	})

	t.Run("negative", func(t *testing.T) {
		assert.Empty(t, MergeSolutions(ones, nil, -1))
	})

	t.Run("more than available", func(t *testing.T) {
		merged := MergeSolutions(ones, nil, 10)
		require.Len(t, merged, 3)
		assert.Equal(t, int64(10), merged[0].Price)
		assert.Equal(t, int64(20), merged[1].Price)
		assert.Equal(t, int64(30), merged[2].Price)
	})

	t.Run("truncates", func(t *testing.T) {
		merged := MergeSolutions(ones, nil, 2)
		require.Len(t, merged, 2)
		assert.Equal(t, int64(20), merged[1].Price)
	})

	t.Run("empty inputs", func(t *testing.T) {
		merged := MergeSolutions(nil, nil, 5)
		assert.NotNil(t, merged)
		assert.Empty(t, merged)
	})
}

func TestMergeSolutions_DoesNotMutateInputs(t *testing.T) {
	ones := []OneLegSolution{
		{Ticket: leg("2", "AAA", "CCC", 0, 10, 20)},
		{Ticket: leg("1", "AAA", "CCC", 0, 10, 10)},
	}
	before := append([]OneLegSolution(nil), ones...)

	MergeSolutions(ones, nil, 1)

	assert.Equal(t, before, ones)
}
