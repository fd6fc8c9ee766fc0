package types

// PostingRuleDocument is the policy-as-data contract between finance
// configuration and the posting engine: one document per tenant or
// jurisdiction, persisted as-is and required to round-trip losslessly.
// Rates, percentages and fixed amounts are plain numbers here; the engine
// converts them to decimals before any arithmetic.
type PostingRuleDocument struct {
	CountryCode    string            `yaml:"country_code" json:"country_code"`
	CurrencyCode   string            `yaml:"currency_code" json:"currency_code"`
	VATConfig      *VATConfig        `yaml:"vat_config,omitempty" json:"vat_config,omitempty"`
	PostingRules   []PostingRuleDef  `yaml:"posting_rules" json:"posting_rules"`
	AccountMapping map[string]string `yaml:"account_mapping,omitempty" json:"account_mapping,omitempty"`
}

type VATConfig struct {
	StandardRate float64 `yaml:"standard_rate" json:"standard_rate"`
	ReducedRate  float64 `yaml:"reduced_rate,omitempty" json:"reduced_rate,omitempty"`
	ZeroRated    bool    `yaml:"zero_rated,omitempty" json:"zero_rated,omitempty"`
}

// PostingRuleDef maps one smart code onto a balanced set of ledger postings.
// Selection is exact-match on SmartCode; rules are immutable per version.
type PostingRuleDef struct {
	SmartCode      string       `yaml:"smart_code" json:"smart_code"`
	Description    string       `yaml:"description,omitempty" json:"description,omitempty"`
	DebitAccounts  []string     `yaml:"debit_accounts" json:"debit_accounts"`
	CreditAccounts []string     `yaml:"credit_accounts" json:"credit_accounts"`
	VATHandling    *VATHandling `yaml:"vat_handling,omitempty" json:"vat_handling,omitempty"`
	Splits         []SplitRule  `yaml:"splits,omitempty" json:"splits,omitempty"`
	Conditions     []string     `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

type VATHandling struct {
	Rate      float64 `yaml:"rate" json:"rate"`
	Account   string  `yaml:"account" json:"account"`
	Inclusive bool    `yaml:"inclusive" json:"inclusive"`
	// Side defaults to credit (output VAT); input-VAT rules set debit.
	Side string `yaml:"side,omitempty" json:"side,omitempty"`
}

// SplitRule contributes either a percentage of the net amount or a fixed
// amount, gated by Condition. An empty Condition always holds; the engine
// never checks that active percentages sum to 100, that is the rule
// author's obligation.
type SplitRule struct {
	Account     string   `yaml:"account" json:"account"`
	Percentage  *float64 `yaml:"percentage,omitempty" json:"percentage,omitempty"`
	FixedAmount *float64 `yaml:"fixed_amount,omitempty" json:"fixed_amount,omitempty"`
	Condition   string   `yaml:"condition,omitempty" json:"condition,omitempty"`
}
