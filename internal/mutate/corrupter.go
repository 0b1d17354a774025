package mutate

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"corrupt/internal/analysis"
	"corrupt/internal/disasm"
	"corrupt/internal/rom"
)

// Mutation records one applied write.
type Mutation struct {
	Offset int  `json:"offset"`
	Old    byte `json:"old"`
	New    byte `json:"new"`
}

// Report summarises a session.
type Report struct {
	Seed      uint64                 `json:"seed"`
	Mode      Mode                   `json:"mode"`
	Attempts  int                    `json:"attempts"`
	Rounds    int                    `json:"rounds"`
	Unchanged int                    `json:"unchanged"`
	Mutations []Mutation             `json:"mutations"`
	Skipped   map[analysis.Class]int `json:"skipped"`
}

// Applied returns the number of bytes written.
func (r *Report) Applied() int {
	return len(r.Mutations)
}

// Corrupter mutates one image. It is not safe for concurrent use; Run
// parallelises internally.
type Corrupter struct {
	img *rom.Image
	p   Params
	rng *rand.Rand
}

type candidate struct {
	offset int
	delta  byte // 1-255, added to the old value in random mode
}

type outcome struct {
	verdict   analysis.Verdict
	mutation  Mutation
	applied   bool
	unchanged bool
}

// New prepares a session over img.
func New(img *rom.Image, p Params) (*Corrupter, error) {
	p, err := p.normalize(img.Len())
	if err != nil {
		return nil, err
	}
	if p.Seed == 0 {
		p.Seed = uint64(time.Now().UnixNano())
	}
	return &Corrupter{
		img: img,
		p:   p,
		rng: rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Params returns the normalised parameters, including the effective seed.
func (c *Corrupter) Params() Params {
	return c.p
}

// Run draws candidates until Count bytes were mutated or the attempt budget
// is spent. Candidates are processed in rounds sized to the remaining
// deficit; inside a round every aligned word is owned by one worker, so the
// outcome does not depend on the worker count.
func (c *Corrupter) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		Seed:    c.p.Seed,
		Mode:    c.p.Mode,
		Skipped: make(map[analysis.Class]int),
	}
	limit := c.p.Count * AttemptsFactor

	for report.Applied() < c.p.Count && report.Attempts < limit {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		n := min(c.p.Count-report.Applied(), limit-report.Attempts)
		batch := c.draw(n)
		report.Attempts += n
		report.Rounds++

		results, err := c.apply(ctx, batch)
		if err != nil {
			return report, err
		}
		for _, res := range results {
			switch {
			case res.applied:
				report.Mutations = append(report.Mutations, res.mutation)
			case res.unchanged:
				report.Unchanged++
			default:
				report.Skipped[res.verdict.Class]++
			}
		}
		slog.Debug("Round complete", "round", report.Rounds, "candidates", n, "applied", report.Applied())
	}

	slog.Info("Corruption finished",
		"seed", report.Seed,
		"mode", report.Mode,
		"applied", report.Applied(),
		"attempts", report.Attempts)

	if report.Applied() == 0 {
		return report, ErrExhausted
	}
	return report, nil
}

func (c *Corrupter) draw(n int) []candidate {
	span := c.p.End - c.p.Start
	batch := make([]candidate, n)
	for i := range batch {
		batch[i] = candidate{
			offset: c.p.Start + c.rng.IntN(span),
			delta:  byte(1 + c.rng.IntN(255)),
		}
	}
	return batch
}

// apply groups the batch by aligned word and runs each group in draw order.
func (c *Corrupter) apply(ctx context.Context, batch []candidate) ([]outcome, error) {
	var order []int
	groups := make(map[int][]int)
	for i, cand := range batch {
		w := disasm.Align(cand.offset)
		if _, ok := groups[w]; !ok {
			order = append(order, w)
		}
		groups[w] = append(groups[w], i)
	}

	results := make([]outcome, len(batch))

	if c.p.Workers <= 1 {
		for _, w := range order {
			if err := c.applyGroup(batch, groups[w], results); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(c.p.Workers)
	for _, w := range order {
		idx := groups[w]
		g.Go(func() error {
			return c.applyGroup(batch, idx, results)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// applyGroup classifies then mutates candidates that share one word. It only
// touches that word and the results slots listed in idx.
func (c *Corrupter) applyGroup(batch []candidate, idx []int, results []outcome) error {
	data := c.img.Bytes()
	for _, i := range idx {
		cand := batch[i]
		v, err := analysis.Classify(data, cand.offset)
		if err != nil || !v.Eligible {
			results[i] = outcome{verdict: v}
			continue
		}

		old := data[cand.offset]
		val := c.value(old, cand.delta)
		if val == old {
			results[i] = outcome{verdict: v, unchanged: true}
			continue
		}
		if err := c.img.Set(cand.offset, val); err != nil {
			return err
		}
		results[i] = outcome{
			verdict:  v,
			applied:  true,
			mutation: Mutation{Offset: cand.offset, Old: old, New: val},
		}
	}
	return nil
}

func (c *Corrupter) value(old, delta byte) byte {
	switch c.p.Mode {
	case ModeAdd:
		return old + c.p.Intensity
	case ModeXor:
		return old ^ c.p.Intensity
	case ModeSet:
		return c.p.Intensity
	default:
		return old + delta
	}
}
