package billboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/tax"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func entry(character entity.CharacterID, refType entity.RefType, amount string, first, second entity.EntityID, date time.Time) aggregate.JournalRecord {
	return aggregate.JournalRecord{
		CharacterID:   character,
		RefType:       refType,
		Amount:        decimal.RequireFromString(amount),
		FirstPartyID:  first,
		SecondPartyID: second,
		Date:          date,
	}
}

func TestBuildWithoutDataReturnsNil(t *testing.T) {
	e := New(zap.NewNop(), nil)
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	got, err := e.Build(nil, nil, nil, aggregate.GranularityMonth)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = e.Build([]aggregate.JournalRecord{
		entry(1001, "bounty_prizes", "0", 1000125, 1001, day),
		entry(1001, "war_fee", "-100", 1001, 1000125, day),
	}, []aggregate.MiningRecord{
		aggregate.NewMiningRecord(1001, day, 1230, 30000142, 100),
	}, aggregate.PriceBook{}, aggregate.GranularityMonth)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBuildTimeSeriesAndTotals(t *testing.T) {
	e := New(zap.NewNop(), nil, WithModeAnnotations())
	rows := []aggregate.JournalRecord{
		entry(1001, "bounty_prizes", "1000.4", 1000125, 1001, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)),
		entry(1001, "bounty_prizes", "500.3", 1000125, 1001, time.Date(2024, 3, 2, 21, 0, 0, 0, time.UTC)),
		entry(1001, "skill_purchase", "-250.555", 1001, 1000132, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)),
		entry(1001, "agent_mission_reward", "99.994", 1000125, 1001, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	mining := []aggregate.MiningRecord{
		aggregate.NewMiningRecord(1001, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), 1230, 30000142, 10),
	}

	got, err := e.Build(rows, mining, aggregate.PriceBook{1230: decimal.NewFromInt(20)}, aggregate.GranularityMonth)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "month", got.Granularity)
	assert.Equal(t, []aggregate.ChartRow{
		{"date": "2024-03-01", "costs": int64(-251), "miscellaneous": int64(100)},
		{"date": "2024-03-02", "bounty": int64(1501), "mining": int64(200)},
	}, got.TimeSeries)
	assert.Equal(t, aggregate.ChartRow{
		"bounty (income)": 1500.7,
		"ess (income)":    0.0,
		"mining (income)": 200.0,
	}, got.Donut)
	assert.Equal(t, aggregate.ChartRow{
		"bounty (income)":        1500.7,
		"ess (income)":           0.0,
		"mining (income)":        200.0,
		"miscellaneous (income)": 99.99,
	}, got.Gauge)
}

func TestBuildDayGranularity(t *testing.T) {
	e := New(zap.NewNop(), nil)
	rows := []aggregate.JournalRecord{
		entry(1001, "bounty_prizes", "10", 1000125, 1001, time.Date(2024, 3, 2, 10, 59, 59, 0, time.UTC)),
		entry(1001, "bounty_prizes", "10", 1000125, 1001, time.Date(2024, 3, 2, 10, 1, 0, 0, time.UTC)),
		entry(1001, "bounty_prizes", "10", 1000125, 1001, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)),
	}

	got, err := e.Build(rows, nil, nil, aggregate.GranularityDay)
	require.NoError(t, err)
	require.Len(t, got.TimeSeries, 2)
	assert.Equal(t, "2024-03-02 09:00:00", got.TimeSeries[0]["date"])
	assert.Equal(t, "2024-03-02 10:00:00", got.TimeSeries[1]["date"])
	assert.Equal(t, int64(20), got.TimeSeries[1]["bounty"])
}

func TestFlowsCollapseIntoOthers(t *testing.T) {
	var (
		names = aggregate.Names{}
		rows  []aggregate.JournalRecord
		day   = time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	)
	for i := 0; i < 20; i++ {
		source := entity.EntityID(2000 + i)
		names[source] = entity.Name(fmt.Sprintf("source-%02d", i))
		rows = append(rows, entry(1001, "player_donation", "10", source, 1001, day))
	}

	e := New(zap.NewNop(), nil, WithNames(names), WithOwnerLabel("Wallet"))
	got, err := e.Build(rows, nil, nil, aggregate.GranularityYear)
	require.NoError(t, err)
	require.Len(t, got.Flows, 16)

	for i, edge := range got.Flows[:15] {
		assert.Equal(t, fmt.Sprintf("source-%02d", i), edge.From)
		assert.Equal(t, "Wallet", edge.To)
		assert.Equal(t, 10.0, edge.Value)
	}
	assert.Equal(t, aggregate.FlowEdge{From: OthersLabel, To: "Wallet", Value: 50}, got.Flows[15])
}

func TestFlowsKeepUnnamedSourcesApart(t *testing.T) {
	var (
		rows []aggregate.JournalRecord
		day  = time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	)
	for i := 0; i < 20; i++ {
		rows = append(rows, entry(1001, "player_donation", "10", entity.EntityID(2000+i), 1001, day))
	}

	e := New(zap.NewNop(), nil, WithOwnerLabel("Wallet"))
	got, err := e.Build(rows, nil, nil, aggregate.GranularityYear)
	require.NoError(t, err)
	require.Len(t, got.Flows, 16)

	for _, edge := range got.Flows[:15] {
		assert.Equal(t, aggregate.FlowEdge{From: string(entity.UnknownName), To: "Wallet", Value: 10}, edge)
	}
	assert.Equal(t, aggregate.FlowEdge{From: OthersLabel, To: "Wallet", Value: 50}, got.Flows[15])
}

func TestFlowsSumRepeatedPairs(t *testing.T) {
	day := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	e := New(zap.NewNop(), nil, WithNames(aggregate.Names{1001: "Pilot", 1000125: "CONCORD", 1000132: "School"}))

	got, err := e.Build([]aggregate.JournalRecord{
		entry(1001, "bounty_prizes", "100", 1000125, 1001, day),
		entry(1001, "bounty_prizes", "150", 1000125, 1001, day),
		entry(1001, "skill_purchase", "-30", 1001, 1000132, day),
	}, nil, nil, aggregate.GranularityMonth)
	require.NoError(t, err)
	assert.Equal(t, []aggregate.FlowEdge{
		{From: "CONCORD", To: "Pilot", Value: 250},
		{From: "Pilot", To: "School", Value: 30},
	}, got.Flows)
}

func TestCharacterViewUsesCorporationShare(t *testing.T) {
	converter, err := tax.NewConverter(decimal.NewFromInt(10))
	require.NoError(t, err)
	day := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	corpESS := entry(0, "ess_escrow_transfer", "100", 1000125, 1001, day)
	corpESS.CorporationID = 98000001
	corpESS.DivisionID = 1
	corpBounty := entry(0, "bounty_prizes", "7777", 1000125, 98000001, day)
	corpBounty.CorporationID = 98000001
	corpBounty.DivisionID = 1

	rows := []aggregate.JournalRecord{
		corpESS,
		corpBounty,
		entry(1001, "ess_escrow_transfer", "5000", 1000125, 1001, day),
		entry(1001, "bounty_prizes", "300", 1000125, 1001, day),
	}

	e := New(zap.NewNop(), nil, WithCharacterView(converter), WithOwnerLabel("Wallet"))
	got, err := e.Build(rows, nil, nil, aggregate.GranularityMonth)
	require.NoError(t, err)
	require.Len(t, got.TimeSeries, 1)
	assert.Equal(t, int64(900), got.TimeSeries[0]["ess"])
	assert.Equal(t, int64(300), got.TimeSeries[0]["bounty"])
	assert.Equal(t, 900.0, got.Donut["ess"])

	_, err = New(zap.NewNop(), nil, WithCharacterView(nil)).Build(rows, nil, nil, aggregate.GranularityMonth)
	var cfgErr *tax.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
