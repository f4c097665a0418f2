package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ioko18/magflow-erp-sub002/internal/domain"
)

const (
	// DefaultThreshold is the hybrid-score cut-off for considering a pair a
	// match. Historically tuned values: 0.70 text-only, 0.85 image-only,
	// 0.75 hybrid. These are starting points, not constants; every run may
	// override them.
	DefaultThreshold = 0.75

	defaultWorkers = 4
)

// EngineConfig holds the tunables of the matching engine.
type EngineConfig struct {
	TextWeight         float64
	ImageWeight        float64
	Threshold          float64
	Blend              TextBlend
	BlockingEnabled    bool
	Workers            int
	EnableDebugLogging bool
}

// RunParams optionally overrides engine configuration for a single run.
// Nil fields keep the engine's configured value.
type RunParams struct {
	TextWeight      *float64 `json:"textWeight,omitempty"`
	ImageWeight     *float64 `json:"imageWeight,omitempty"`
	Threshold       *float64 `json:"threshold,omitempty"`
	BlockingEnabled *bool    `json:"blockingEnabled,omitempty"`
}

// MatchingEngine groups supplier listings that refer to the same physical
// product. One call to Run is one batch: scoring and grouping happen fresh
// every time, with no state carried between runs.
type MatchingEngine struct {
	cfg    EngineConfig
	text   *TextScorer
	logger *zap.Logger
}

// NewMatchingEngine creates an engine with the given configuration,
// applying defaults for unset values.
func NewMatchingEngine(cfg EngineConfig, logger *zap.Logger) *MatchingEngine {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.TextWeight <= 0 && cfg.ImageWeight <= 0 {
		w := DefaultHybridWeights()
		cfg.TextWeight = w.TextWeight
		cfg.ImageWeight = w.ImageWeight
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchingEngine{
		cfg:    cfg,
		text:   NewTextScorer(cfg.Blend),
		logger: logger,
	}
}

// Run executes one matching batch: validate, normalize, generate candidate
// pairs, score them, cluster matched pairs into groups, and derive the
// per-group price comparison.
//
// Products are never mutated; the engine works on its own ID-sorted copy.
// An empty batch is not an error and yields an empty report. A malformed
// record fails the whole run, identifying the record, because silently
// dropping input would skew group counts downstream.
func (e *MatchingEngine) Run(ctx context.Context, products []domain.RawProduct, params *RunParams) (*domain.MatchReport, error) {
	threshold := e.cfg.Threshold
	weights := HybridWeights{TextWeight: e.cfg.TextWeight, ImageWeight: e.cfg.ImageWeight}
	blocking := e.cfg.BlockingEnabled
	if params != nil {
		if params.Threshold != nil {
			threshold = *params.Threshold
		}
		if params.TextWeight != nil {
			weights.TextWeight = *params.TextWeight
		}
		if params.ImageWeight != nil {
			weights.ImageWeight = *params.ImageWeight
		}
		if params.BlockingEnabled != nil {
			blocking = *params.BlockingEnabled
		}
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v outside [0,1]", domain.ErrInvalidRequest, threshold)
	}
	if weights.TextWeight+weights.ImageWeight <= 0 {
		return nil, fmt.Errorf("%w: hybrid weights must sum to a positive value", domain.ErrInvalidRequest)
	}

	if err := validateBatch(products); err != nil {
		return nil, err
	}

	report := &domain.MatchReport{Groups: []domain.MatchingGroup{}, Stats: domain.RunStats{Products: len(products)}}
	if len(products) == 0 {
		return report, nil
	}

	// ID-sorted working copy; all downstream ordering derives from it.
	batch := make([]domain.RawProduct, len(products))
	copy(batch, products)
	sort.Slice(batch, func(i, j int) bool { return batch[i].ID < batch[j].ID })

	for i := range batch {
		if batch[i].NormalizedName == "" {
			batch[i].NormalizedName = Normalize(batch[i].Name)
		}
	}

	pairs := generateCandidates(batch, blocking)
	report.Stats.CandidatePairs = len(pairs)

	scored, warnings, err := e.scorePairs(ctx, batch, pairs, weights, threshold)
	if err != nil {
		return nil, err
	}
	report.Warnings = warnings

	// Cancellation checkpoint: partial scores are useless without the union
	// step, so cancellation granularity is the whole run.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, p := range scored {
		if p.score.IsMatch {
			report.Stats.MatchedPairs++
		}
	}

	clusters := buildClusters(len(batch), scored)
	groups, groupWarnings := e.summarizeClusters(batch, clusters, scored)
	report.Groups = groups
	report.Warnings = append(report.Warnings, groupWarnings...)
	report.Stats.Groups = len(groups)

	e.logger.Info("matching run complete",
		zap.Int("products", report.Stats.Products),
		zap.Int("candidatePairs", report.Stats.CandidatePairs),
		zap.Int("matchedPairs", report.Stats.MatchedPairs),
		zap.Int("groups", report.Stats.Groups),
		zap.Float64("threshold", threshold),
		zap.Bool("blocking", blocking))

	return report, nil
}

// scorePairs computes text, image, and hybrid scores for every candidate
// pair across a bounded worker pool. Pair scoring is embarrassingly
// parallel: inputs are immutable and each worker writes only to its own
// slots, so the result is identical regardless of interleaving and no
// locking is needed.
func (e *MatchingEngine) scorePairs(
	ctx context.Context,
	batch []domain.RawProduct,
	pairs []candidatePair,
	weights HybridWeights,
	threshold float64,
) ([]scoredPair, []string, error) {
	scored := make([]scoredPair, len(pairs))
	pairWarnings := make([]string, len(pairs))

	workers := e.cfg.Workers
	if workers > len(pairs) {
		workers = len(pairs)
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		offset := w
		g.Go(func() error {
			for i := offset; i < len(pairs); i += workers {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				pa := batch[pairs[i].a]
				pb := batch[pairs[i].b]

				score := domain.PairScore{
					ProductA:       pa.ID,
					ProductB:       pb.ID,
					TextSimilarity: e.text.Similarity(pa.NormalizedName, pb.NormalizedName),
				}

				if pa.PerceptualHash != nil && pb.PerceptualHash != nil {
					imgSim, err := ImageSimilarity(*pa.PerceptualHash, *pb.PerceptualHash)
					switch {
					case errors.Is(err, domain.ErrHashVersionMismatch):
						// Recoverable: degrade the pair to text-only.
						pairWarnings[i] = fmt.Sprintf("hash version mismatch for pair (%s, %s): image score unavailable", pa.ID, pb.ID)
					case err != nil:
						return err
					default:
						score.ImageSimilarity = &imgSim
					}
				}

				score.HybridScore = hybridScore(score.TextSimilarity, score.ImageSimilarity, weights)
				score.IsMatch = score.HybridScore >= threshold

				if e.cfg.EnableDebugLogging {
					e.logger.Debug("pair scored",
						zap.String("a", pa.ID),
						zap.String("b", pb.ID),
						zap.Float64("text", score.TextSimilarity),
						zap.Float64("hybrid", score.HybridScore),
						zap.Bool("match", score.IsMatch))
				}

				scored[i] = scoredPair{candidatePair: pairs[i], score: score}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, w := range pairWarnings {
		if w != "" {
			warnings = append(warnings, w)
		}
	}
	return scored, warnings, nil
}

// summarizeClusters turns index clusters into fully derived matching groups.
func (e *MatchingEngine) summarizeClusters(batch []domain.RawProduct, clusters [][]int, scored []scoredPair) ([]domain.MatchingGroup, []string) {
	// Root index of every product, so direct pair scores can be assigned to
	// their cluster.
	rootOf := make(map[int]int, len(batch))
	for ci, members := range clusters {
		for _, m := range members {
			rootOf[m] = ci
		}
	}

	direct := make(map[int][]domain.PairScore, len(clusters))
	for _, p := range scored {
		if rootOf[p.a] == rootOf[p.b] {
			direct[rootOf[p.a]] = append(direct[rootOf[p.a]], p.score)
		}
	}

	groups := make([]domain.MatchingGroup, 0, len(clusters))
	var warnings []string
	for ci, idx := range clusters {
		members := make([]domain.RawProduct, len(idx))
		for i, m := range idx {
			members[i] = batch[m]
		}
		group, groupWarnings := summarizeGroup(members, direct[ci])
		groups = append(groups, group)
		warnings = append(warnings, groupWarnings...)
	}
	return groups, warnings
}

// validateBatch rejects malformed records before any scoring begins.
func validateBatch(products []domain.RawProduct) error {
	seen := make(map[string]bool, len(products))
	for i, p := range products {
		switch {
		case p.ID == "":
			return fmt.Errorf("%w: product[%d] has no id", domain.ErrMalformedProduct, i)
		case p.SupplierID == "":
			return fmt.Errorf("%w: product %q has no supplier id", domain.ErrMalformedProduct, p.ID)
		case p.Name == "":
			return fmt.Errorf("%w: product %q has no name", domain.ErrMalformedProduct, p.ID)
		case p.Price.Amount.IsNegative():
			return fmt.Errorf("%w: product %q has negative price %s", domain.ErrMalformedProduct, p.ID, p.Price.Amount)
		case seen[p.ID]:
			return fmt.Errorf("%w: duplicate product id %q", domain.ErrMalformedProduct, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
