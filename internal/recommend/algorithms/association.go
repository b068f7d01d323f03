// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrMiningInfeasible is returned when the transaction data cannot support
// association mining. The accompanying RuleSet is always valid and empty.
var ErrMiningInfeasible = errors.New("association mining infeasible")

const (
	// maxRuleItemsetLen bounds subset enumeration when no explicit limit is set.
	maxRuleItemsetLen = 16

	// defaultMinSupportCount is the absolute transaction floor used when
	// MinSupportCount is unset.
	defaultMinSupportCount = 2

	// defaultMaxItemsets and defaultMaxRules apply when the caps are unset.
	defaultMaxItemsets = 20000
	defaultMaxRules    = 10000

	// cancelCheckInterval is how many candidates are counted between
	// context checks.
	cancelCheckInterval = 64
)

// AssociationConfig contains thresholds for Apriori mining.
type AssociationConfig struct {
	// MinSupport is the minimum fraction of transactions an itemset must
	// appear in to be frequent.
	MinSupport float64 `json:"min_support"`

	// MinConfidence is the minimum confidence a rule must reach.
	MinConfidence float64 `json:"min_confidence"`

	// MaxItemsetLen caps the size of frequent itemsets. Zero uses the
	// internal bound.
	MaxItemsetLen int `json:"max_itemset_len"`

	// MinSupportCount is the minimum number of transactions an itemset must
	// appear in, in addition to MinSupport. The floor never exceeds half the
	// transactions, so a two-basket log can still mine rules. Zero uses 2.
	MinSupportCount int `json:"min_support_count"`

	// MaxItemsets caps the frequent itemsets kept. A level whose candidates
	// would exceed the cap is not mined and the RuleSet is marked
	// truncated. Zero uses 20000.
	MaxItemsets int `json:"max_itemsets"`

	// MaxRules caps the rules kept after ranking by confidence. Zero uses
	// 10000.
	MaxRules int `json:"max_rules"`
}

// DefaultAssociationConfig returns support 0.01 with a floor of two
// transactions, confidence 0.3, itemsets of at most four items and the
// default itemset and rule caps.
func DefaultAssociationConfig() AssociationConfig {
	return AssociationConfig{
		MinSupport:      0.01,
		MinConfidence:   0.3,
		MaxItemsetLen:   4,
		MinSupportCount: defaultMinSupportCount,
		MaxItemsets:     defaultMaxItemsets,
		MaxRules:        defaultMaxRules,
	}
}

// minCount returns the absolute support floor for n transactions.
func (c AssociationConfig) minCount(n int) int {
	floor := c.MinSupportCount
	if floor <= 0 {
		floor = defaultMinSupportCount
	}
	if half := max(1, n/2); floor > half {
		floor = half
	}
	return floor
}

func (c AssociationConfig) maxItemsets() int {
	if c.MaxItemsets <= 0 {
		return defaultMaxItemsets
	}
	return c.MaxItemsets
}

func (c AssociationConfig) maxRules() int {
	if c.MaxRules <= 0 {
		return defaultMaxRules
	}
	return c.MaxRules
}

// Rule is an association rule antecedent => consequent.
type Rule struct {
	Antecedent []int   `json:"antecedent"`
	Consequent []int   `json:"consequent"`
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
	Lift       float64 `json:"lift"`
}

// RuleSet holds mined rules and the statistics of the mining run.
type RuleSet struct {
	BaseModel

	rules        []Rule
	transactions int
	itemsets     int
	truncated    bool
}

// EmptyRuleSet returns a RuleSet without rules.
func EmptyRuleSet() *RuleSet {
	return &RuleSet{BaseModel: NewBaseModel("association")}
}

// Rules returns the mined rules ordered by confidence, then support.
// The slice must not be modified.
func (r *RuleSet) Rules() []Rule {
	return r.rules
}

// Len returns the number of rules.
func (r *RuleSet) Len() int {
	return len(r.rules)
}

// Transactions returns the number of multi-item transactions mined.
func (r *RuleSet) Transactions() int {
	return r.transactions
}

// FrequentItemsets returns the number of frequent itemsets found.
func (r *RuleSet) FrequentItemsets() int {
	return r.itemsets
}

// Truncated reports whether the itemset or rule cap cut mining short.
func (r *RuleSet) Truncated() bool {
	return r.truncated
}

// Recommend applies every rule whose antecedent is contained in history and
// scores each consequent item outside history by the highest confidence of
// any rule that produced it. It returns the top k.
func (r *RuleSet) Recommend(history []int, k int) []Scored {
	if len(r.rules) == 0 || len(history) == 0 || k <= 0 {
		return nil
	}

	owned := toSet(history)
	best := make(map[int]float64)
	for i := range r.rules {
		rule := &r.rules[i]
		if !containsAll(owned, rule.Antecedent) {
			continue
		}
		for _, item := range rule.Consequent {
			if _, ok := owned[item]; ok {
				continue
			}
			if rule.Confidence > best[item] {
				best[item] = rule.Confidence
			}
		}
	}
	return topK(best, k)
}

// MineRules runs Apriori over per-user histories. Only users with more than
// one distinct item form transactions. Fewer than two transactions wraps
// ErrMiningInfeasible; so does the absence of frequent itemsets. In every
// case the returned RuleSet is non-nil.
//
// Mining is bounded by MaxItemsets and MaxRules; when either cap is hit the
// result is still usable and Truncated reports true.
func MineRules(ctx context.Context, histories map[int][]int, cfg AssociationConfig) (*RuleSet, error) {
	rs := EmptyRuleSet()

	txs := buildTransactions(histories)
	rs.transactions = len(txs)
	if len(txs) < 2 {
		return rs, fmt.Errorf("%w: %d multi-item transactions", ErrMiningInfeasible, len(txs))
	}

	maxLen := cfg.MaxItemsetLen
	if maxLen <= 0 || maxLen > maxRuleItemsetLen {
		maxLen = maxRuleItemsetLen
	}

	support, truncated, err := frequentItemsets(ctx, txs, cfg, maxLen)
	if err != nil {
		return rs, err
	}
	rs.itemsets = len(support)
	rs.truncated = truncated
	if len(support) == 0 {
		return rs, fmt.Errorf("%w: no frequent itemsets at support %.4f (min count %d)",
			ErrMiningInfeasible, cfg.MinSupport, cfg.minCount(len(txs)))
	}

	rules, err := generateRules(ctx, support, cfg.MinConfidence)
	if err != nil {
		return rs, err
	}
	if limit := cfg.maxRules(); len(rules) > limit {
		rules = append([]Rule(nil), rules[:limit]...)
		rs.truncated = true
	}
	rs.rules = rules
	return rs, nil
}

// buildTransactions returns the sorted distinct item sets of users with
// more than one item, ordered by user id.
func buildTransactions(histories map[int][]int) [][]int {
	users := make([]int, 0, len(histories))
	for u := range histories {
		users = append(users, u)
	}
	sort.Ints(users)

	txs := make([][]int, 0, len(users))
	for _, u := range users {
		set := toSet(histories[u])
		if len(set) < 2 {
			continue
		}
		tx := make([]int, 0, len(set))
		for id := range set {
			tx = append(tx, id)
		}
		sort.Ints(tx)
		txs = append(txs, tx)
	}
	return txs
}

// frequentItemsets returns support by itemset key for every frequent
// itemset up to maxLen items. An itemset is frequent when its count reaches
// both the MinSupport fraction and the absolute floor. Mining stops before
// any level whose candidates would push the total past MaxItemsets, and the
// second result reports that.
func frequentItemsets(ctx context.Context, txs [][]int, cfg AssociationConfig, maxLen int) (map[string]float64, bool, error) {
	n := float64(len(txs))
	floor := cfg.minCount(len(txs))
	frequent := func(count int) bool {
		return count >= floor && float64(count)/n >= cfg.MinSupport
	}
	limit := cfg.maxItemsets()

	support := make(map[string]float64)

	counts := make(map[int]int)
	for _, tx := range txs {
		for _, id := range tx {
			counts[id]++
		}
	}
	level := make([][]int, 0, len(counts))
	for id, c := range counts {
		if frequent(c) {
			level = append(level, []int{id})
		}
	}
	sortItemsets(level)
	truncated := len(level) > limit
	if truncated {
		level = level[:limit]
	}
	for _, set := range level {
		support[itemsetKey(set)] = float64(counts[set[0]]) / n
	}
	if truncated {
		return support, true, nil
	}

	for size := 2; size <= maxLen && len(level) > 1; size++ {
		if ContextCancelled(ctx) {
			return nil, false, ctx.Err()
		}

		candidates, ok := aprioriGen(level, support, limit-len(support))
		if !ok {
			return support, true, nil
		}
		counted, err := countCandidates(ctx, candidates, txs, size)
		if err != nil {
			return nil, false, err
		}

		next := make([][]int, 0, len(candidates))
		for i, cand := range candidates {
			if frequent(counted[i]) {
				next = append(next, cand)
				support[itemsetKey(cand)] = float64(counted[i]) / n
			}
		}
		level = next
	}

	return support, false, nil
}

// countCandidates returns the number of transactions containing each
// candidate. The context is checked every cancelCheckInterval candidates.
func countCandidates(ctx context.Context, candidates, txs [][]int, size int) ([]int, error) {
	counts := make([]int, len(candidates))
	for i, cand := range candidates {
		if i%cancelCheckInterval == 0 && ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		for _, tx := range txs {
			if len(tx) >= size && isSubsetSorted(cand, tx) {
				counts[i]++
			}
		}
	}
	return counts, nil
}

// aprioriGen joins frequent (k-1)-itemsets sharing a (k-2)-prefix and prunes
// candidates with an infrequent (k-1)-subset. It returns false as soon as
// more than limit candidates would be produced.
func aprioriGen(level [][]int, support map[string]float64, limit int) ([][]int, bool) {
	var out [][]int
	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			a, b := level[i], level[j]
			if !samePrefix(a, b) {
				break
			}
			cand := make([]int, len(a)+1)
			copy(cand, a)
			cand[len(a)] = b[len(b)-1]
			if allSubsetsFrequent(cand, support) {
				if len(out) >= limit {
					return nil, false
				}
				out = append(out, cand)
			}
		}
	}
	return out, true
}

func samePrefix(a, b []int) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allSubsetsFrequent(cand []int, support map[string]float64) bool {
	sub := make([]int, 0, len(cand)-1)
	for skip := range cand {
		sub = sub[:0]
		for i, id := range cand {
			if i != skip {
				sub = append(sub, id)
			}
		}
		if _, ok := support[itemsetKey(sub)]; !ok {
			return false
		}
	}
	return true
}

// generateRules emits every rule A => I\A with confidence
// support(I)/support(A) at or above minConfidence.
func generateRules(ctx context.Context, support map[string]float64, minConfidence float64) ([]Rule, error) {
	keys := make([]string, 0, len(support))
	for k := range support {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rules []Rule
	for _, key := range keys {
		items := parseItemsetKey(key)
		if len(items) < 2 {
			continue
		}
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}

		itemSupport := support[key]
		full := (1 << len(items)) - 1
		for mask := 1; mask < full; mask++ {
			var ante, cons []int
			for i, id := range items {
				if mask&(1<<i) != 0 {
					ante = append(ante, id)
				} else {
					cons = append(cons, id)
				}
			}
			anteSupport := support[itemsetKey(ante)]
			if anteSupport == 0 {
				continue
			}
			conf := itemSupport / anteSupport
			if conf < minConfidence {
				continue
			}
			lift := 0.0
			if consSupport := support[itemsetKey(cons)]; consSupport > 0 {
				lift = conf / consSupport
			}
			rules = append(rules, Rule{
				Antecedent: ante,
				Consequent: cons,
				Support:    itemSupport,
				Confidence: conf,
				Lift:       lift,
			})
		}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Confidence != rules[j].Confidence {
			return rules[i].Confidence > rules[j].Confidence
		}
		if rules[i].Support != rules[j].Support {
			return rules[i].Support > rules[j].Support
		}
		return itemsetKey(rules[i].Antecedent)+"=>"+itemsetKey(rules[i].Consequent) <
			itemsetKey(rules[j].Antecedent)+"=>"+itemsetKey(rules[j].Consequent)
	})
	return rules, nil
}

// isSubsetSorted reports whether sorted a is contained in sorted b.
func isSubsetSorted(a, b []int) bool {
	j := 0
	for _, x := range a {
		for j < len(b) && b[j] < x {
			j++
		}
		if j == len(b) || b[j] != x {
			return false
		}
		j++
	}
	return true
}

func containsAll(set map[int]struct{}, ids []int) bool {
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

func sortItemsets(sets [][]int) {
	sort.Slice(sets, func(i, j int) bool {
		a, b := sets[i], sets[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}

func itemsetKey(items []int) string {
	var sb strings.Builder
	for i, id := range items {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(id))
	}
	return sb.String()
}

func parseItemsetKey(key string) []int {
	parts := strings.Split(key, ",")
	items := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		items = append(items, id)
	}
	return items
}
