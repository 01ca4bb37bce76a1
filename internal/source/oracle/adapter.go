package oracle

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/source"
)

const (
	SourceID   = "oracle"
	SourceName = "Oracle"
	currency   = "USD"
)

// Adapter generates drafts from the template catalog. It never runs dry;
// callers bound it with the fetch limit.
type Adapter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAdapter creates an Oracle source. A zero seed draws a fresh one from the clock.
func NewAdapter(seed int64) *Adapter {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Adapter{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed>>1)|1))}
}

func (a *Adapter) GetSourceID() string {
	return SourceID
}

func (a *Adapter) GetDisplayName() string {
	return SourceName
}

// FetchBatch generates limit drafts. The cursor counts drafts generated so far.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.Draft, string, error) {
	start := 0
	if cursor != "" {
		var err error
		start, err = strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
	}

	drafts := make([]source.Draft, 0, limit)
	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return drafts, "", err
		}
		d := a.Generate()
		d.Ref = fmt.Sprintf("%s-%d", SourceID, start+i)
		drafts = append(drafts, d)
	}
	return drafts, strconv.Itoa(start + limit), nil
}

// Generate builds one draft: weighted category, then a template from it.
func (a *Adapter) Generate() source.Draft {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.pickCategory() {
	case domain.CategoryBundle:
		return a.buildBundle()
	case domain.CategoryAutomationKit:
		return a.buildSingle(domain.CategoryAutomationKit, automationKits,
			"%s. A complete automation kit for %s. Templates + SOPs + scripts. Digital delivery only.")
	default:
		return a.buildSingle(domain.CategoryPromptPack, promptPacks,
			"%s. Digital prompt pack designed for %s. Instant download. No physical items. Includes clear instructions.")
	}
}

func (a *Adapter) pickCategory() domain.Category {
	r := a.rng.Float64()
	cumulative := 0.0
	for _, w := range categoryWeights {
		cumulative += w.Weight
		if r <= cumulative {
			return w.Category
		}
	}
	return categoryWeights[len(categoryWeights)-1].Category
}

func (a *Adapter) buildSingle(category domain.Category, catalog []template, descFormat string) source.Draft {
	base := catalog[a.rng.IntN(len(catalog))]
	price := a.pick(priceLadders[category])
	hook := hooks[a.rng.IntN(len(hooks))]
	niche := niches[a.rng.IntN(len(niches))]
	metrics := a.estimateMetrics(category, price)

	return source.Draft{
		Title:          fmt.Sprintf("%s (%s)", base.Title, niche),
		Category:       category,
		Niche:          niche,
		Price:          price,
		Currency:       currency,
		Description:    fmt.Sprintf(descFormat, hook, niche),
		DigitalContent: base.DigitalContent,
		ImagePrompt:    base.ImagePrompt,
		Tags:           mergeTags(base.Tags, niche, "digital"),
		Confidence:     Confidence(price, metrics),
		Metrics:        metrics,
	}
}

func (a *Adapter) buildBundle() source.Draft {
	b := bundles[a.rng.IntN(len(bundles))]
	pack := promptPacks[b.PromptPack]
	kit := automationKits[b.Kit]
	price := a.pick(priceLadders[domain.CategoryBundle])
	hook := hooks[a.rng.IntN(len(hooks))]
	niche := niches[a.rng.IntN(len(niches))]
	metrics := a.estimateMetrics(domain.CategoryBundle, price)

	content := fmt.Sprintf("BUNDLE CONTENTS:\n\n1) PROMPT PACK: %s\n%s\n\n2) AUTOMATION KIT: %s\n%s\n\nBONUS:\n- Limited-time scarcity copy pack\n- 'Secrets they don't want you to know' hook variants\n",
		pack.Title, pack.DigitalContent, kit.Title, kit.DigitalContent)

	return source.Draft{
		Title:    fmt.Sprintf("%s (%s)", b.Title, niche),
		Category: domain.CategoryBundle,
		Niche:    niche,
		Price:    price,
		Currency: currency,
		Description: fmt.Sprintf("%s. This is a paired bundle: one prompt pack + one automation kit that reinforce each other. "+
			"Digital-only. Instant download. Scarcity-style offer copy included.", hook),
		DigitalContent: content,
		ImagePrompt:    bundleImagePrompt,
		Tags:           mergeTags(b.Tags, niche, "digital"),
		Confidence:     Confidence(price, metrics),
		Metrics:        metrics,
	}
}

func (a *Adapter) pick(ladder []float64) float64 {
	return ladder[a.rng.IntN(len(ladder))]
}

// estimateMetrics gives rough per-item cost, profit range and how many days
// the offer stays fresh. Bundles burn out faster.
func (a *Adapter) estimateMetrics(category domain.Category, price float64) *domain.ItemMetrics {
	costLow, costHigh := 0.50, 2.00
	days := 7 + a.rng.IntN(24)
	if category == domain.CategoryBundle {
		costHigh = 3.00
		days = 3 + a.rng.IntN(8)
	}
	return &domain.ItemMetrics{
		EstimatedCost:       costHigh,
		EstimatedProfitLow:  round2(math.Max(0, price-costHigh)),
		EstimatedProfitHigh: round2(math.Max(0, price-costLow)),
		PopularityDays:      days,
	}
}

// Confidence scores a draft from its worst-case margin and shelf life.
// The result is in [0.4, 1].
func Confidence(price float64, m *domain.ItemMetrics) float64 {
	if price <= 0 || m == nil {
		return 0
	}
	margin := math.Min(1, m.EstimatedProfitLow/price)
	freshness := math.Min(1, float64(m.PopularityDays)/30)
	return round2(0.4 + 0.4*margin + 0.2*freshness)
}

func mergeTags(base []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, t := range append(append([]string(nil), base...), extra...) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
