package calculation

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/org"
	"github.com/rgehrsitz/kpisynth/internal/random"
	"github.com/schollz/progressbar/v3"
)

// Engine orchestrates roster drawing, simulation and adjustment for a whole run
type Engine struct {
	Params    *domain.Parameters
	Simulator *Simulator
	Adjuster  *Adjuster
	Logger    Logger

	// Workers > 1 runs accounts on a worker pool, each account on its own sub-stream
	Workers int
	// ContinueOnError skips accounts whose pipeline fails instead of aborting the run
	ContinueOnError bool
	// Progress receives a progress bar when non-nil
	Progress io.Writer
	Debug    bool
}

// NewEngine creates an engine for the given parameters
func NewEngine(params *domain.Parameters) *Engine {
	return &Engine{
		Params:    params,
		Simulator: NewSimulator(params),
		Adjuster:  NewAdjuster(params),
		Logger:    NopLogger{},
		Workers:   1,
	}
}

// SetLogger sets the engine logger; nil installs a no-op logger
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		e.Logger = NopLogger{}
		return
	}
	e.Logger = l
}

// RunID returns the deterministic identifier of a run
func RunID(seed int64, year int, parallel bool) string {
	mode := "sequential"
	if parallel {
		mode = "parallel"
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("kpisynth/%d/%d/%s", seed, year, mode))).String()
}

// Generate draws the roster from a stream seeded with Params.Seed and runs it
func (e *Engine) Generate(ctx context.Context, periods []domain.Period) (*domain.Dataset, error) {
	rng := random.New(e.Params.Seed)
	roster, err := org.BuildRoster(rng, e.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to build roster: %w", err)
	}
	e.Logger.Infof("roster drawn: %d salespeople, %d accounts", len(roster.Salespeople), len(roster.Accounts))
	return e.Run(ctx, rng, roster, periods)
}

type accountResult struct {
	records []domain.MonthlyRecord
	err     error
}

// Run simulates and adjusts every account of the roster.
// Correlation factors are drawn from rng first. Sequentially the same stream then serves every
// account in roster order; with Workers > 1 each account draws from its own sub-stream.
func (e *Engine) Run(ctx context.Context, rng random.Source, roster *domain.Roster, periods []domain.Period) (*domain.Dataset, error) {
	if err := domain.ValidatePeriods(periods); err != nil {
		return nil, fmt.Errorf("invalid calendar: %w", err)
	}

	salespeople := roster.SalespeopleByID()

	factors := DrawCorrelationFactors(rng, e.Params.Factors, roster.Salespeople, roster.Accounts)
	if e.Debug {
		for _, sp := range roster.Salespeople {
			e.Logger.Debugf("%s: plan tightness %.4f, efficiency %.4f", sp.ID, factors.PlanTightness[sp.ID], factors.Efficiency[sp.ID])
		}
	}

	bar := e.newProgressBar(len(roster.Accounts))
	parallel := e.Workers > 1

	var results []accountResult
	var err error
	if parallel {
		results, err = e.runParallel(ctx, roster.Accounts, salespeople, periods, factors, bar)
	} else {
		results, err = e.runSequential(ctx, roster.Accounts, salespeople, periods, factors, rng, bar)
	}
	if err != nil {
		return nil, err
	}

	ds := &domain.Dataset{
		RunID:       RunID(e.Params.Seed, periods[0].Year, parallel),
		Seed:        e.Params.Seed,
		Year:        periods[0].Year,
		Periods:     append([]domain.Period(nil), periods...),
		Salespeople: append([]domain.Salesperson(nil), roster.Salespeople...),
	}

	for i, res := range results {
		acc := roster.Accounts[i]
		if res.err != nil {
			if !e.ContinueOnError {
				return nil, fmt.Errorf("generation aborted: %w", res.err)
			}
			e.Logger.Warnf("skipping account %s: %v", acc.ID, res.err)
			ds.Skipped = append(ds.Skipped, domain.SkippedAccount{AccountID: acc.ID, Reason: res.err.Error()})
			continue
		}
		ds.Accounts = append(ds.Accounts, acc)
		ds.Records = append(ds.Records, res.records...)
	}

	sort.SliceStable(ds.Records, func(i, j int) bool {
		a, b := ds.Records[i], ds.Records[j]
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		return a.Period.Date.Before(b.Period.Date)
	})

	e.Logger.Infof("run %s: %d records, %d accounts skipped", ds.RunID, len(ds.Records), len(ds.Skipped))
	return ds, nil
}

func (e *Engine) runSequential(ctx context.Context, accounts []domain.Account, salespeople map[string]domain.Salesperson, periods []domain.Period, factors *CorrelationFactors, rng random.Source, bar *progressbar.ProgressBar) ([]accountResult, error) {
	results := make([]accountResult, len(accounts))
	for i, acc := range accounts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := e.processAccount(acc, salespeople, periods, factors, rng)
		results[i] = accountResult{records: records, err: err}
		advance(bar)
	}
	return results, nil
}

func (e *Engine) runParallel(ctx context.Context, accounts []domain.Account, salespeople map[string]domain.Salesperson, periods []domain.Period, factors *CorrelationFactors, bar *progressbar.ProgressBar) ([]accountResult, error) {
	results := make([]accountResult, len(accounts))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < e.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				acc := accounts[i]
				sub := random.New(random.SubStreamSeed(e.Params.Seed, acc.ID))
				records, err := e.processAccount(acc, salespeople, periods, factors, sub)
				results[i] = accountResult{records: records, err: err}
				advance(bar)
			}
		}()
	}

feed:
	for i := range accounts {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// processAccount simulates one account and runs its adjustment walk
func (e *Engine) processAccount(acc domain.Account, salespeople map[string]domain.Salesperson, periods []domain.Period, factors *CorrelationFactors, rng random.Source) ([]domain.MonthlyRecord, error) {
	sp, ok := salespeople[acc.SalespersonID]
	if !ok {
		return nil, fmt.Errorf("account %s: unknown salesperson %s", acc.ID, acc.SalespersonID)
	}

	records, err := e.Simulator.Simulate(acc, periods, factors, rng)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].AreaID = sp.AreaID
		records[i].CountryID = sp.CountryID
	}

	if err := e.Adjuster.Adjust(acc, records, rng); err != nil {
		return nil, err
	}
	return records, nil
}

func (e *Engine) newProgressBar(total int) *progressbar.ProgressBar {
	if e.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(e.Progress),
		progressbar.OptionSetDescription("simulating accounts"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func advance(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}
