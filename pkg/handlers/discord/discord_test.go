package discord

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestCommand(t *testing.T) {
	tests := []struct {
		command string
		content string
		ok      bool
		args    []string
	}{
		{"!ledger", "!ledger", true, []string{}},
		{"!ledger", "!ledger  2024-03", true, []string{"2024-03"}},
		{"!ledger", "!ledgers", false, nil},
		{"!ledger character", "!ledger character 90000001 2024", true, []string{"90000001", "2024"}},
		{"!help", "hello !help", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			ok, args := command(tt.command, tt.content)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, len(tt.args), len(args))
				for i := range tt.args {
					assert.Equal(t, tt.args[i], args[i])
				}
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	period, err := parsePeriod(nil, now)
	require.NoError(t, err)
	assert.Equal(t, aggregate.Period{Year: 2024, Month: time.March}, period)

	period, err = parsePeriod([]string{"2023"}, now)
	require.NoError(t, err)
	assert.Equal(t, aggregate.Period{Year: 2023}, period)

	_, err = parsePeriod([]string{"2023", "extra"}, now)
	assert.Equal(t, errUnknownArgument, err)

	_, err = parsePeriod([]string{"March"}, now)
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, period, err := parseID([]string{"90000001", "2024-02-29"}, now)
	require.NoError(t, err)
	assert.Equal(t, entity.EntityID(90000001), id)
	assert.Equal(t, aggregate.Period{Year: 2024, Month: time.February, Day: 29}, period)

	_, _, err = parseID(nil, now)
	assert.Error(t, err)
	_, _, err = parseID([]string{"abc"}, now)
	assert.EqualError(t, err, `invalid id: "abc"`)

	assert.True(t, isID("90000001"))
	assert.False(t, isID("2024"))
	assert.False(t, isID("2024-03"))
}

func TestTitleWithPeriod(t *testing.T) {
	assert.Equal(t, "for 2024", titleWithPeriod(aggregate.Period{Year: 2024}))
	assert.Equal(t, "for March 2024", titleWithPeriod(aggregate.Period{Year: 2024, Month: time.March}))
	assert.Equal(t, "for 5 March 2024", titleWithPeriod(aggregate.Period{Year: 2024, Month: time.March, Day: 5}))
}

func TestLedgerMessagesNoData(t *testing.T) {
	messages := ledgerMessages("Ledger", &aggregate.Ledger{})
	require.Len(t, messages, 1)
	assert.Equal(t, noDataMsg, messages[0].Description)

	messages = ledgerMessages("Ledger", nil)
	require.Len(t, messages, 1)
}

func TestLedgerMessagesSplitsRows(t *testing.T) {
	ledger := &aggregate.Ledger{}
	for i := 0; i < rowsPerEmbed+1; i++ {
		ledger.Rows = append(ledger.Rows, aggregate.LedgerRow{
			ID:    entity.EntityID(i + 1),
			Name:  entity.Name(fmt.Sprintf("Pilot %02d", i)),
			Total: decimal.NewFromInt(1000),
		})
	}
	messages := ledgerMessages(ledgerMsg+" for March 2024", ledger)
	require.Len(t, messages, 3)
	assert.Equal(t, rowsPerEmbed, strings.Count(messages[0].Description, "  bounty "))
	assert.Equal(t, 1, strings.Count(messages[1].Description, "  bounty "))
	assert.Contains(t, messages[1].Title, "(16-16)")
	assert.Contains(t, messages[1].Description, "Pilot 15")
	assert.Equal(t, balanceMsg+" for March 2024", messages[2].Title)
}

func TestLedgerByTypeMessages(t *testing.T) {
	breakdown := aggregate.NewBreakdown()
	breakdown.ByRefType["bounty_prizes"] = decimal.NewFromInt(500)
	breakdown.ByRefType["ess_escrow_transfer"] = decimal.NewFromInt(900)
	breakdown.ByRefType["market_escrow"] = decimal.NewFromInt(-300)

	messages := ledgerByTypeMessages(aggregate.Period{Year: 2024}, breakdown)
	require.Len(t, messages, 2)
	income := messages[0].Description
	assert.Less(t, strings.Index(income, "ess_escrow_transfer"), strings.Index(income, "bounty_prizes"))
	assert.NotContains(t, income, "market_escrow")
	assert.Contains(t, messages[1].Description, "market_escrow")
}

func testBoard() *aggregate.Billboard {
	return &aggregate.Billboard{
		Granularity: "month",
		TimeSeries: []aggregate.ChartRow{
			{"date": "2024-03-01", "bounty": int64(100), "costs": int64(-20)},
			{"date": "2024-03-02", "bounty": int64(50)},
		},
		Donut: aggregate.ChartRow{"bounty": 150.0, "ess": 0.0, "mining": 12.5},
	}
}

func TestTimeSeriesChart(t *testing.T) {
	config, err := timeSeriesChart(testBoard())
	require.NoError(t, err)

	var decoded chartConfig
	require.NoError(t, json.Unmarshal([]byte(config), &decoded))
	assert.Equal(t, "line", decoded.Type)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, decoded.Data.Labels)
	require.Len(t, decoded.Data.Datasets, 2)
	assert.Equal(t, "bounty", decoded.Data.Datasets[0].Label)
	assert.Equal(t, []float64{100, 50}, decoded.Data.Datasets[0].Data)
	assert.Equal(t, []float64{-20, 0}, decoded.Data.Datasets[1].Data)
}

func TestDonutChart(t *testing.T) {
	config, err := donutChart(testBoard())
	require.NoError(t, err)

	var decoded chartConfig
	require.NoError(t, json.Unmarshal([]byte(config), &decoded))
	assert.Equal(t, []string{"bounty", "ess", "mining"}, decoded.Data.Labels)
	assert.Equal(t, []float64{150, 0, 12.5}, decoded.Data.Datasets[0].Data)
	assert.Equal(t, []string{"#4e79a7", "#f28e2b", "#59a14f"}, decoded.Data.Datasets[0].BackgroundColor)
}

func TestFlowsDescription(t *testing.T) {
	assert.Empty(t, flowsDescription(nil))

	var flows []aggregate.FlowEdge
	for i := 0; i < maxFlowLines+2; i++ {
		flows = append(flows, aggregate.FlowEdge{From: fmt.Sprintf("npc-%02d", i), To: "Wallet", Value: float64(i)})
	}
	description := flowsDescription(flows)
	assert.Equal(t, maxFlowLines, strings.Count(description, "-> Wallet"))
	assert.Less(t, strings.Index(description, "npc-11"), strings.Index(description, "npc-10"))
	assert.NotContains(t, description, "npc-01 ")
	assert.Equal(t, "npc-00", flows[0].From)
}

func TestSyncFailedMessage(t *testing.T) {
	message := syncFailedMessage(aggregate.SyncNotification{
		Target: "character_journal:1001",
		Date:   time.Now(),
		Err:    errors.New("entity resolution incomplete: resolved 1 of 2 ids"),
	})
	assert.Equal(t, syncFailedMsg+" `character_journal:1001`", message.Title)
	assert.Contains(t, message.Description, "resolved 1 of 2 ids")
}
