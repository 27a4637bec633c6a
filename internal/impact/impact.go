// Package impact estimates the CO2 kept out of the atmosphere by accepted
// material exchanges and ranks the users whose listings saved the most.
//
// Everything here is a pure function of the accepted deals; the dashboard
// recomputes it on every view.
package impact

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/erazemk/upcycle/internal/model"
)

// factors are kilograms of CO2 saved per unit of reused material.
var factors = map[string]float64{
	model.CategoryPlastic: 1.8,
	model.CategoryMetal:   4.5,
	model.CategoryGlass:   0.9,
	model.CategoryWood:    2.5,
	model.CategoryTextile: 3.5,
	model.CategoryPaper:   1.2,
	model.CategoryOther:   1.5,
}

// LeaderboardSize is how many Eco-Warriors the dashboard shows.
const LeaderboardSize = 10

// Factor returns the CO2 factor for a category. Unknown categories count as Other.
func Factor(category string) float64 {
	if f, ok := factors[category]; ok {
		return f
	}
	return factors[model.CategoryOther]
}

// bucket returns the category a deal is reported under.
func bucket(category string) string {
	if _, ok := factors[category]; ok {
		return category
	}
	return model.CategoryOther
}

// ParseQuantity coerces a stored quantity to a number. Anything that is not
// a number in (0, model.MaxQuantity] counts as zero, so rows stored before
// listings were validated cannot push the totals to infinity.
func ParseQuantity(raw string) float64 {
	q, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !(q > 0 && q <= model.MaxQuantity) {
		return 0
	}
	return q
}

// saved is the CO2 saved by qty units of category. A non-finite product
// counts as zero.
func saved(qty float64, category string) float64 {
	co2 := qty * Factor(category)
	if math.IsNaN(co2) || math.IsInf(co2, 0) {
		return 0
	}
	return co2
}

// CategoryTotal is the CO2 saved within one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	CO2      float64 `json:"co2"`
}

// Summary is the dashboard's heatmap data plus the overall total.
type Summary struct {
	TotalCO2   float64         `json:"total_co2"`
	ByCategory []CategoryTotal `json:"by_category"`
}

// Labels returns the category names in heatmap order.
func (s Summary) Labels() []string {
	labels := make([]string, len(s.ByCategory))
	for i, c := range s.ByCategory {
		labels[i] = c.Category
	}
	return labels
}

// Values returns the per-category totals in heatmap order.
func (s Summary) Values() []float64 {
	values := make([]float64, len(s.ByCategory))
	for i, c := range s.ByCategory {
		values[i] = c.CO2
	}
	return values
}

// Summarize totals quantity × factor over every deal. Every category appears
// in the result, in model.Categories order, even when it has no deals.
func Summarize(deals []model.Deal) Summary {
	totals := make(map[string]float64, len(factors))
	var sum float64
	for _, d := range deals {
		co2 := saved(ParseQuantity(d.Quantity), d.Category)
		totals[bucket(d.Category)] += co2
		sum += co2
	}

	s := Summary{TotalCO2: sum, ByCategory: make([]CategoryTotal, 0, len(model.Categories))}
	for _, c := range model.Categories {
		s.ByCategory = append(s.ByCategory, CategoryTotal{Category: c, CO2: totals[c]})
	}
	return s
}

// Warrior is one leaderboard entry.
type Warrior struct {
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	TotalImpact float64 `json:"total_impact"`
}

// Leaderboard ranks material owners by the CO2 their accepted listings saved.
// Quantities are summed per owner and category before the factor is applied.
// Ties keep the order in which owners first appear in deals. A limit of zero
// or less returns the whole board.
func Leaderboard(deals []model.Deal, limit int) []Warrior {
	type key struct{ owner, category string }

	var groups []key
	qty := make(map[key]float64)
	for _, d := range deals {
		k := key{d.OwnerEmail, d.Category}
		if _, seen := qty[k]; !seen {
			groups = append(groups, k)
		}
		qty[k] += ParseQuantity(d.Quantity)
	}

	names := make(map[string]string)
	for _, d := range deals {
		if _, ok := names[d.OwnerEmail]; !ok {
			names[d.OwnerEmail] = d.OwnerName
		}
	}

	var board []Warrior
	index := make(map[string]int)
	for _, k := range groups {
		i, ok := index[k.owner]
		if !ok {
			i = len(board)
			index[k.owner] = i
			board = append(board, Warrior{Email: k.owner, Name: names[k.owner]})
		}
		board[i].TotalImpact += saved(qty[k], k.category)
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].TotalImpact > board[j].TotalImpact
	})

	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board
}

// Standing is a user's place on the full leaderboard.
type Standing struct {
	Position int     `json:"position"`
	Total    float64 `json:"total"`
	// ToNext is the CO2 still needed to draw level with the user ranked
	// directly above; any further saving overtakes them. Zero for first
	// place and when tied with the rank above.
	ToNext float64 `json:"to_next"`
	// Tied is set when the user above has exactly the same total. The
	// stable sort placed them first because they appeared first.
	Tied bool `json:"tied"`
}

// Rank finds email on a leaderboard built without a limit. It reports false
// when the user has no accepted deals.
func Rank(board []Warrior, email string) (Standing, bool) {
	for i, w := range board {
		if w.Email != email {
			continue
		}
		st := Standing{Position: i + 1, Total: w.TotalImpact}
		if i > 0 {
			st.ToNext = board[i-1].TotalImpact - w.TotalImpact
			st.Tied = st.ToNext == 0
		}
		return st, true
	}
	return Standing{}, false
}

// Report is the impact section of the dashboard.
type Report struct {
	Summary     Summary   `json:"summary"`
	Leaderboard []Warrior `json:"leaderboard"`
	// Standing is nil when the viewer has no accepted deals.
	Standing *Standing `json:"standing,omitempty"`
}

// NewReport builds the dashboard report for the viewer identified by email.
// The viewer is ranked on the full board, so their standing is known even
// when they are not in the top LeaderboardSize.
func NewReport(deals []model.Deal, email string) Report {
	full := Leaderboard(deals, 0)

	r := Report{Summary: Summarize(deals), Leaderboard: full}
	if len(full) > LeaderboardSize {
		r.Leaderboard = full[:LeaderboardSize]
	}
	if email != "" {
		if st, ok := Rank(full, email); ok {
			r.Standing = &st
		}
	}
	return r
}
