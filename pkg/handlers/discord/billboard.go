package discord

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/billboard"

	"github.com/bwmarrin/discordgo"
	quickchartgo "github.com/henomis/quickchart-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	chartVersion = "2.9.4"
	maxFlowLines = 10
)

// seriesColors are fixed so a category keeps its color across charts.
var seriesColors = map[string]string{
	billboard.CategoryBounty:        "#4e79a7",
	billboard.CategoryESS:           "#f28e2b",
	billboard.CategoryMining:        "#59a14f",
	billboard.CategoryMiscellaneous: "#b07aa1",
	billboard.CategoryCosts:         "#e15759",
}

// billboardHandler will be called every time a new
// message is created on any channel that the autenticated bot has access to.
func (h *discordHandler) billboardHandler(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	request := ledger.BillboardRequest{
		Scope: aggregate.LedgerScopeCorporation,
		ID:    h.scope.CorporationID.EntityID(),
	}
	var err error
	switch {
	case len(args) > 0 && args[0] == string(aggregate.LedgerScopeCharacter):
		request.Scope = aggregate.LedgerScopeCharacter
		request.ID, request.Period, err = parseID(args[1:], h.now())
	case len(args) > 0 && args[0] == string(aggregate.LedgerScopeAlliance):
		request.Scope = aggregate.LedgerScopeAlliance
		request.ID = h.scope.AllianceID.EntityID()
		request.Period, err = parsePeriod(args[1:], h.now())
		if err == nil && request.ID == 0 {
			err = errors.New("no alliance configured")
		}
	default:
		request.Period, err = parsePeriod(args, h.now())
	}
	if err != nil {
		h.error(err, m.ChannelID)
		return
	}
	h.working(m)

	board, err := h.accountantSvc.Billboard(h.ctx, request)
	if err != nil {
		h.error(errors.Wrap(err, "error building billboard"), m.ChannelID)
		return
	}
	title := fmt.Sprintf("%s %s", billboardMsg, titleWithPeriod(request.Period))
	if board == nil {
		h.sendEmbeds(m.ChannelID, []*discordgo.MessageEmbed{{Title: title, Description: noDataMsg, Color: 0xffffff}})
		return
	}

	var embeds []*discordgo.MessageEmbed
	for _, config := range []func(*aggregate.Billboard) (string, error){timeSeriesChart, donutChart} {
		chartConfig, err := config(board)
		if err != nil {
			h.error(errors.Wrap(err, "error encoding chart"), m.ChannelID)
			return
		}
		chartURL, err := chartURL(chartConfig)
		if err != nil {
			h.error(errors.Wrap(err, "error generating chart url"), m.ChannelID)
			return
		}
		embeds = append(embeds, &discordgo.MessageEmbed{
			Title: title,
			Color: 0xffffff,
			Image: &discordgo.MessageEmbedImage{URL: chartURL},
		})
	}
	if flows := flowsDescription(board.Flows); flows != "" {
		embeds = append(embeds, &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("%s %s", incomeMsg, titleWithPeriod(request.Period)),
			Description: flows,
			Color:       0x00ff00,
		})
	}
	h.sendEmbeds(m.ChannelID, embeds)
}

func chartURL(config string) (string, error) {
	qc := quickchartgo.New()
	qc.Config = config
	qc.Width = 1920
	qc.Height = 1080
	qc.Version = chartVersion
	return qc.GetShortUrl()
}

type chartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	Fill            bool      `json:"fill"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	LineTension     float64   `json:"lineTension"`
	PointRadius     int       `json:"pointRadius"`
}

type chartConfig struct {
	Type string `json:"type"`
	Data struct {
		Labels   []string       `json:"labels"`
		Datasets []chartDataset `json:"datasets"`
	} `json:"data"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// timeSeriesChart draws one line per category over the billboard buckets.
func timeSeriesChart(board *aggregate.Billboard) (string, error) {
	var (
		config     = chartConfig{Type: "line"}
		categories = seriesCategories(board.TimeSeries)
	)
	for _, row := range board.TimeSeries {
		config.Data.Labels = append(config.Data.Labels, fmt.Sprint(row["date"]))
	}
	for _, category := range categories {
		dataset := chartDataset{
			Label:       category,
			BorderColor: seriesColors[category],
			PointRadius: 3,
		}
		for _, row := range board.TimeSeries {
			dataset.Data = append(dataset.Data, toFloat(row[category]))
		}
		config.Data.Datasets = append(config.Data.Datasets, dataset)
	}
	config.Options = map[string]interface{}{
		"legend": map[string]interface{}{"display": true, "position": "top"},
	}
	configB, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	return string(configB), nil
}

// donutChart draws the income split of the whole period.
func donutChart(board *aggregate.Billboard) (string, error) {
	config := chartConfig{Type: "doughnut"}
	dataset := chartDataset{Label: "income"}
	keys := make([]string, 0, len(board.Donut))
	for key := range board.Donut {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		config.Data.Labels = append(config.Data.Labels, key)
		dataset.Data = append(dataset.Data, toFloat(board.Donut[key]))
		dataset.BackgroundColor = append(dataset.BackgroundColor, seriesColors[strings.Fields(key)[0]])
	}
	config.Data.Datasets = []chartDataset{dataset}
	configB, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	return string(configB), nil
}

func seriesCategories(rows []aggregate.ChartRow) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range rows {
		for key := range row {
			if key == "date" {
				continue
			}
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				out = append(out, key)
			}
		}
	}
	sort.Strings(out)
	return out
}

// flowsDescription lists the largest flows, biggest first.
func flowsDescription(flows []aggregate.FlowEdge) string {
	if len(flows) == 0 {
		return ""
	}
	sorted := append([]aggregate.FlowEdge(nil), flows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	if len(sorted) > maxFlowLines {
		sorted = sorted[:maxFlowLines]
	}
	var description strings.Builder
	description.WriteString("```")
	for _, flow := range sorted {
		description.WriteString(fmt.Sprintf("%s -> %s  %s\n",
			flow.From, flow.To, isk(decimal.NewFromFloat(flow.Value))))
	}
	description.WriteString("```")
	return description.String()
}

func toFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
