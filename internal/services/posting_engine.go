package services

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/platform/smartcode"
	"github.com/heraerp/platform/internal/types"
)

const (
	SideDebit  = "debit"
	SideCredit = "credit"
)

// PostingLine is one generated ledger posting.
type PostingLine struct {
	LineNumber  int             `json:"line_number"`
	Account     string          `json:"account"`
	Side        string          `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	SmartCode   string          `json:"smart_code"`
}

// PostingEngine is stateless per transaction: select the rule by exact smart
// code, apply it, emit the full line set or nothing.
type PostingEngine interface {
	LoadDocument(doc types.PostingRuleDocument) error
	LoadDocumentFile(path string) error
	Rules() []types.PostingRuleDef
	Apply(ctx context.Context, txn *types.Transaction, conditions map[string]bool) ([]PostingLine, error)
}

type postingEngine struct {
	log   *logger.Logger
	rules map[string]types.PostingRuleDef
}

func NewPostingEngine(baseLog *logger.Logger) PostingEngine {
	return &postingEngine{
		log:   baseLog.With("service", "PostingEngine"),
		rules: map[string]types.PostingRuleDef{},
	}
}

// LoadDocument validates and registers every rule in the document. The whole
// document validates before any rule registers, so a bad rule rejects the
// load without touching the live rule set. Loading a smart code that already
// exists replaces it, which is how a v2 document supersedes v1 at startup.
func (e *postingEngine) LoadDocument(doc types.PostingRuleDocument) error {
	staged := make(map[string]types.PostingRuleDef, len(doc.PostingRules))
	for _, rule := range doc.PostingRules {
		if err := smartcode.Validate(rule.SmartCode); err != nil {
			return apierr.Validation("posting rule: %v", err)
		}
		for _, split := range rule.Splits {
			if split.Account == "" {
				return apierr.Validation("posting rule %s: split without account", rule.SmartCode)
			}
			if split.Percentage == nil && split.FixedAmount == nil {
				return apierr.Validation("posting rule %s: split %q needs percentage or fixed_amount", rule.SmartCode, split.Account)
			}
		}
		if rule.VATHandling != nil && rule.VATHandling.Account == "" {
			return apierr.Validation("posting rule %s: vat_handling without account", rule.SmartCode)
		}
		e.warnOnSplitSum(rule)
		staged[rule.SmartCode] = rule
	}
	for code, rule := range staged {
		e.rules[code] = rule
	}
	e.log.Info("posting rules loaded",
		"country_code", doc.CountryCode,
		"currency_code", doc.CurrencyCode,
		"rule_count", len(doc.PostingRules),
	)
	return nil
}

func (e *postingEngine) LoadDocumentFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read posting rules %s: %w", path, err)
	}
	var doc types.PostingRuleDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse posting rules %s: %w", path, err)
	}
	return e.LoadDocument(doc)
}

// warnOnSplitSum flags unconditional percentage splits that do not sum to
// 100. The engine still applies such rules unchanged; partial allocation may
// be intended once conditions deactivate subsets.
func (e *postingEngine) warnOnSplitSum(rule types.PostingRuleDef) {
	sum := decimal.Zero
	counted := 0
	for _, split := range rule.Splits {
		if split.Condition != "" || split.Percentage == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(*split.Percentage))
		counted++
	}
	if counted == 0 {
		return
	}
	if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		e.log.Warn("unconditional split percentages do not sum to 100",
			"smart_code", rule.SmartCode,
			"sum", sum.String(),
		)
	}
}

func (e *postingEngine) Rules() []types.PostingRuleDef {
	out := make([]types.PostingRuleDef, 0, len(e.rules))
	for _, rule := range e.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].SmartCode < out[b].SmartCode })
	return out
}

// Apply turns one transaction into its posting lines. All failure paths
// return before any line is built, so a caller never sees a partial set.
func (e *postingEngine) Apply(_ context.Context, txn *types.Transaction, conditions map[string]bool) ([]PostingLine, error) {
	if txn == nil {
		return nil, apierr.Validation("transaction is required")
	}
	if err := smartcode.Validate(txn.SmartCode); err != nil {
		return nil, apierr.Validation("transaction: %v", err)
	}
	rule, ok := e.rules[txn.SmartCode]
	if !ok {
		return nil, apierr.UnmatchedRule(txn.SmartCode)
	}

	gross := txn.TotalAmount
	net, vat, err := extractVAT(gross, rule.VATHandling)
	if err != nil {
		return nil, err
	}

	var lines []PostingLine
	appendLine := func(account, side string, amount decimal.Decimal, description string) {
		lines = append(lines, PostingLine{
			LineNumber:  len(lines) + 1,
			Account:     account,
			Side:        side,
			Amount:      amount,
			Description: description,
			SmartCode:   txn.SmartCode,
		})
	}

	if len(rule.Splits) > 0 {
		// Splits allocate the debit side over the net amount; inactive
		// conditions contribute nothing.
		for _, split := range rule.Splits {
			if split.Condition != "" && !conditions[split.Condition] {
				continue
			}
			var amount decimal.Decimal
			switch {
			case split.Percentage != nil:
				amount = net.Mul(decimal.NewFromFloat(*split.Percentage)).Div(decimal.NewFromInt(100)).Round(2)
			case split.FixedAmount != nil:
				amount = decimal.NewFromFloat(*split.FixedAmount).Round(2)
			}
			if amount.IsZero() {
				continue
			}
			appendLine(split.Account, SideDebit, amount, "split allocation")
		}
	} else {
		// Without splits the gross lands on the debit accounts, divided
		// equally with the remainder on the last.
		if err := divideAcross(rule.DebitAccounts, gross, SideDebit, appendLine); err != nil {
			return nil, fmt.Errorf("posting rule %s: %w", txn.SmartCode, err)
		}
	}

	if err := divideAcross(rule.CreditAccounts, net, SideCredit, appendLine); err != nil {
		return nil, fmt.Errorf("posting rule %s: %w", txn.SmartCode, err)
	}

	if rule.VATHandling != nil && !vat.IsZero() {
		side := rule.VATHandling.Side
		if side == "" {
			side = SideCredit
		}
		appendLine(rule.VATHandling.Account, side, vat, "vat")
	}

	return lines, nil
}

// extractVAT splits the transaction amount per the rule's VAT handling.
// Inclusive: the given amount is gross, net = gross / (1 + rate).
// Exclusive: the given amount is net, vat = net * rate.
func extractVAT(amount decimal.Decimal, handling *types.VATHandling) (net, vat decimal.Decimal, err error) {
	if handling == nil {
		return amount, decimal.Zero, nil
	}
	rate := decimal.NewFromFloat(handling.Rate)
	if rate.IsNegative() {
		return decimal.Zero, decimal.Zero, apierr.Validation("vat rate %s is negative", rate)
	}
	if handling.Inclusive {
		net = amount.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
		vat = amount.Sub(net)
		return net, vat, nil
	}
	net = amount
	vat = net.Mul(rate).Round(2)
	return net, vat, nil
}

func divideAcross(accounts []string, amount decimal.Decimal, side string, appendLine func(account, side string, amount decimal.Decimal, description string)) error {
	if len(accounts) == 0 {
		return nil
	}
	for _, account := range accounts {
		if account == "" {
			return fmt.Errorf("empty %s account", side)
		}
	}
	if len(accounts) == 1 {
		appendLine(accounts[0], side, amount, "")
		return nil
	}
	share := amount.Div(decimal.NewFromInt(int64(len(accounts)))).Round(2)
	allocated := decimal.Zero
	for i, account := range accounts {
		lineAmount := share
		if i == len(accounts)-1 {
			lineAmount = amount.Sub(allocated)
		}
		allocated = allocated.Add(lineAmount)
		appendLine(account, side, lineAmount, "")
	}
	return nil
}
