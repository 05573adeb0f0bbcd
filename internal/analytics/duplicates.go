package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

const (
	duplicateAmountTolerance = 0.01
	duplicateWindow          = 24 * time.Hour
)

// DuplicatePair is two transactions that look like the same expense.
type DuplicatePair struct {
	First  domain.Transaction
	Second domain.Transaction
}

// IsDuplicatePair reports whether a and b share a merchant, differ in amount
// by less than a cent and are less than 24 hours apart.
func IsDuplicatePair(a, b domain.Transaction) bool {
	if a.MerchantName != b.MerchantName {
		return false
	}
	if math.Abs(a.Amount-b.Amount) >= duplicateAmountTolerance {
		return false
	}
	d := a.Date.Sub(b.Date)
	if d < 0 {
		d = -d
	}
	return d < duplicateWindow
}

type bucketKey struct {
	merchant string
	cents    int64
}

// DetectDuplicates finds every duplicate pair. Candidates are bucketed by
// merchant and floored cents; two amounts less than a cent apart land in the
// same or adjacent buckets, so comparing each bucket with itself and its
// upper neighbour finds exactly the pairs a full pairwise scan would.
// The scan stops with ctx.Err() when the context is done.
func DetectDuplicates(ctx context.Context, txs []domain.Transaction) ([]DuplicatePair, error) {
	buckets := make(map[bucketKey][]domain.Transaction)
	for _, t := range txs {
		k := bucketKey{merchant: t.MerchantName, cents: int64(math.Floor(t.Amount * 100))}
		buckets[k] = append(buckets[k], t)
	}

	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].merchant != keys[j].merchant {
			return keys[i].merchant < keys[j].merchant
		}
		return keys[i].cents < keys[j].cents
	})

	var pairs []DuplicatePair
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		same := buckets[k]
		for i := 0; i < len(same); i++ {
			for j := i + 1; j < len(same); j++ {
				if IsDuplicatePair(same[i], same[j]) {
					pairs = append(pairs, DuplicatePair{First: same[i], Second: same[j]})
				}
			}
		}

		next := buckets[bucketKey{merchant: k.merchant, cents: k.cents + 1}]
		for _, a := range same {
			for _, b := range next {
				if IsDuplicatePair(a, b) {
					pairs = append(pairs, DuplicatePair{First: a, Second: b})
				}
			}
		}
	}
	return pairs, nil
}
