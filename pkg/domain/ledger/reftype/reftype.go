// Package reftype classifies ESI wallet journal ref_type codes into the
// economic categories used by ledgers and billboards.
package reftype

import (
	"sort"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/pkg/errors"
)

type Category string

const (
	Bounty       Category = "bounty"
	ESS          Category = "ess"
	Mission      Category = "mission"
	Incursion    Category = "incursion"
	Market       Category = "market"
	Contract     Category = "contract"
	Assets       Category = "assets"
	Traveling    Category = "traveling"
	Production   Category = "production"
	Skill        Category = "skill"
	Planetary    Category = "planetary"
	LP           Category = "lp"
	Donation     Category = "donation"
	Insurance    Category = "insurance"
	Milestone    Category = "milestone"
	DailyGoal    Category = "daily_goal"
	Rental       Category = "rental"
	CorpWithdraw Category = "corp_withdraw"

	// Derived unions.
	Miscellaneous Category = "miscellaneous"
	Costs         Category = "costs"
)

var (
	// miscellaneousCategories are summed with a positive sign filter.
	miscellaneousCategories = []Category{
		Mission, Incursion, Market, Contract, Donation, Insurance, Milestone, LP, CorpWithdraw,
	}
	// costCategories are summed with a negative sign filter.
	costCategories = []Category{
		Market, Contract, Assets, Traveling, Production, Skill, Planetary, LP, Donation, Insurance, Rental,
	}

	defaultCodes = map[Category][]entity.RefType{
		Bounty:    {"bounty_prizes"},
		ESS:       {"ess_escrow_transfer"},
		Mission:   {"agent_mission_reward", "agent_mission_time_bonus_reward", "agent_mission_collateral_refund"},
		Incursion: {"corporate_reward_payout"},
		Market: {
			"market_transaction", "market_escrow", "brokers_fee", "transaction_tax",
			"market_provider_tax",
		},
		Contract: {
			"contract_price", "contract_reward", "contract_collateral", "contract_deposit",
			"contract_brokers_fee", "contract_sales_tax", "contract_auction_bid",
			"contract_auction_sold", "contract_auction_bid_refund", "contract_deposit_refund",
			"contract_collateral_payout", "contract_reward_refund", "contract_price_payment_corp",
			"contract_reward_deposited", "contract_reward_deposited_corp", "contract_brokers_fee_corp",
			"contract_auction_bid_corp", "contract_deposit_corp", "contract_collateral_deposited_corp",
		},
		Assets:    {"asset_safety_recovery_tax"},
		Traveling: {"structure_gate_jump", "jump_clone_activation_fee", "jump_clone_installation_fee"},
		Production: {
			"industry_job_tax", "manufacturing", "researching_time_productivity",
			"researching_material_productivity", "researching_technology", "copying",
			"reaction", "reprocessing_tax",
		},
		Skill:        {"skill_purchase"},
		Planetary:    {"planetary_import_tax", "planetary_export_tax", "planetary_construction"},
		LP:           {"lp_store"},
		Donation:     {"player_donation"},
		Insurance:    {"insurance"},
		Milestone:    {"milestone_reward_payment"},
		DailyGoal:    {"daily_goal_payouts"},
		Rental:       {"office_rental_fee", "alliance_maintainance_fee", "structure_rental_fee"},
		CorpWithdraw: {"corporation_account_withdrawal"},
	}

	// Default is the hand curated allow-list. Codes missing here are
	// unclassified: they count toward raw balances but no category sum.
	Default = MustTaxonomy(defaultCodes)
)

// Elementary lists the non-derived categories in a stable order.
func Elementary() []Category {
	return []Category{
		Bounty, ESS, Mission, Incursion, Market, Contract, Assets, Traveling, Production,
		Skill, Planetary, LP, Donation, Insurance, Milestone, DailyGoal, Rental, CorpWithdraw,
	}
}

func IsDerived(c Category) bool {
	return c == Miscellaneous || c == Costs
}

// Taxonomy is an immutable category lookup table.
type Taxonomy struct {
	codes      map[Category]entity.RefTypeSet
	categoryOf map[entity.RefType]Category
}

// NewTaxonomy builds a taxonomy from elementary category code lists.
// A ref type listed under two elementary categories is rejected.
func NewTaxonomy(codes map[Category][]entity.RefType) (*Taxonomy, error) {
	t := &Taxonomy{
		codes:      make(map[Category]entity.RefTypeSet, len(codes)+2),
		categoryOf: make(map[entity.RefType]Category),
	}
	categories := make([]Category, 0, len(codes))
	for category := range codes {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	for _, category := range categories {
		if IsDerived(category) {
			return nil, errors.Errorf("category %q is derived and cannot list codes", category)
		}
		set := make(entity.RefTypeSet, len(codes[category]))
		for _, refType := range codes[category] {
			if other, ok := t.categoryOf[refType]; ok && other != category {
				return nil, errors.Errorf("ref type %q listed in both %q and %q", refType, other, category)
			}
			t.categoryOf[refType] = category
			set[refType] = struct{}{}
		}
		t.codes[category] = set
	}
	t.codes[Miscellaneous] = t.union(miscellaneousCategories)
	t.codes[Costs] = t.union(costCategories)
	return t, nil
}

func MustTaxonomy(codes map[Category][]entity.RefType) *Taxonomy {
	t, err := NewTaxonomy(codes)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Taxonomy) union(categories []Category) entity.RefTypeSet {
	set := make(entity.RefTypeSet)
	for _, category := range categories {
		for refType := range t.codes[category] {
			set[refType] = struct{}{}
		}
	}
	return set
}

// CategoryOf returns the elementary category of refType.
func (t *Taxonomy) CategoryOf(refType entity.RefType) (Category, bool) {
	category, ok := t.categoryOf[refType]
	return category, ok
}

// Codes returns the ref types of an elementary or derived category.
func (t *Taxonomy) Codes(category Category) entity.RefTypeSet {
	return t.codes[category]
}

func (t *Taxonomy) Contains(category Category, refType entity.RefType) bool {
	return t.codes[category].Has(refType)
}

// Categories lists the elementary categories the taxonomy knows.
func (t *Taxonomy) Categories() []Category {
	var out []Category
	for category := range t.codes {
		if !IsDerived(category) {
			out = append(out, category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
