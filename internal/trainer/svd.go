// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

package trainer

import (
	"math"
	"math/rand"
	"sort"

	"github.com/2024ac05667-alt/recomart/internal/models"
)

// Model is a fitted truncated factorization of the user-item rating matrix.
//
// UserFactors holds the projected user rows (m x k), ItemFactors the right
// singular vectors (n x k). The predicted rating for a known (user, item)
// pair is the dot product of the user's projected row with the item's
// component row, which reconstructs the rank-k approximation of the original
// matrix cell.
type Model struct {
	UserFactors    [][]float64
	ItemFactors    [][]float64
	SingularValues []float64
	NComponents    int

	userIndex map[int64]int
	itemIndex map[int64]int
}

// Predict returns the reconstructed rating for the pair. The second return
// is false when the user or item was absent from the training matrix;
// cold-start pairs are not imputed.
func (m *Model) Predict(userID, itemID int64) (float64, bool) {
	u, ok := m.userIndex[userID]
	if !ok {
		return 0, false
	}
	i, ok := m.itemIndex[itemID]
	if !ok {
		return 0, false
	}
	return dot(m.UserFactors[u], m.ItemFactors[i]), true
}

// ratingMatrix is a dense pivot of the training split. Rows are users,
// columns are items, in ascending ID order. Missing pairs are zero.
type ratingMatrix struct {
	cells     [][]float64
	users     []int64
	items     []int64
	userIndex map[int64]int
	itemIndex map[int64]int
}

// buildMatrix pivots interactions into a dense user-item matrix. Multiple
// observations of the same (user, item) pair average into one cell, matching
// the mean aggregation of the feature pipeline.
func buildMatrix(interactions []models.Interaction) *ratingMatrix {
	userSet := make(map[int64]struct{})
	itemSet := make(map[int64]struct{})
	for _, inter := range interactions {
		userSet[inter.UserID] = struct{}{}
		itemSet[inter.ItemID] = struct{}{}
	}

	users := sortedKeys(userSet)
	items := sortedKeys(itemSet)

	userIndex := make(map[int64]int, len(users))
	for i, id := range users {
		userIndex[id] = i
	}
	itemIndex := make(map[int64]int, len(items))
	for i, id := range items {
		itemIndex[id] = i
	}

	cells := make([][]float64, len(users))
	counts := make([][]int, len(users))
	for i := range cells {
		cells[i] = make([]float64, len(items))
		counts[i] = make([]int, len(items))
	}
	for _, inter := range interactions {
		u, i := userIndex[inter.UserID], itemIndex[inter.ItemID]
		cells[u][i] += float64(inter.Rating)
		counts[u][i]++
	}
	for u := range cells {
		for i := range cells[u] {
			if counts[u][i] > 1 {
				cells[u][i] /= float64(counts[u][i])
			}
		}
	}

	return &ratingMatrix{
		cells:     cells,
		users:     users,
		items:     items,
		userIndex: userIndex,
		itemIndex: itemIndex,
	}
}

func sortedKeys(set map[int64]struct{}) []int64 {
	keys := make([]int64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// factorization holds the fitted decomposition pieces.
type factorization struct {
	// transformed is A*V, the projected user rows (m x k).
	transformed [][]float64
	// components is V, the right singular vectors (n x k, item-major).
	components [][]float64
	// singular holds the k leading singular values in descending order.
	singular []float64
	// explainedVariance is the captured fraction of total column variance.
	explainedVariance float64
}

// fitTruncatedSVD computes the k leading right singular vectors of the
// matrix A via power iteration with deflation on the Gram matrix C = A'A.
// Initialization is seeded, so the fit is deterministic for a given input.
func fitTruncatedSVD(a [][]float64, k, maxIter int, tol float64) *factorization {
	n := len(a[0])
	c := gram(a)
	rng := rand.New(rand.NewSource(randomSeed)) //nolint:gosec // deterministic init, not cryptographic

	components := make([][]float64, k)
	singular := make([]float64, k)
	for j := 0; j < k; j++ {
		v, lambda := powerIterate(c, rng, maxIter, tol)
		components[j] = v
		if lambda > 0 {
			singular[j] = math.Sqrt(lambda)
		}
		deflate(c, v, lambda)
	}

	// Transpose components to item-major (n x k) for prediction lookups.
	itemMajor := make([][]float64, n)
	for i := 0; i < n; i++ {
		itemMajor[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			itemMajor[i][j] = components[j][i]
		}
	}

	transformed := make([][]float64, len(a))
	for u, row := range a {
		transformed[u] = make([]float64, k)
		for i, val := range row {
			if val == 0 {
				continue
			}
			for j := 0; j < k; j++ {
				transformed[u][j] += val * itemMajor[i][j]
			}
		}
	}

	return &factorization{
		transformed:       transformed,
		components:        itemMajor,
		singular:          singular,
		explainedVariance: explainedVariance(a, transformed),
	}
}

// powerIterate finds the dominant eigenpair of the symmetric matrix c.
func powerIterate(c [][]float64, rng *rand.Rand, maxIter int, tol float64) (vec []float64, lambda float64) {
	n := len(c)
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64() - 0.5
	}
	normalize(v)

	prev := 0.0
	for iter := 0; iter < maxIter; iter++ {
		w := matVec(c, v)
		lambda = dot(v, w)
		norm := normalize(w)
		if norm == 0 {
			// Deflated to the null space; any unit vector is an eigenvector.
			break
		}
		v = w
		if math.Abs(lambda-prev) < tol {
			break
		}
		prev = lambda
	}
	if lambda < 0 {
		lambda = 0
	}
	return v, lambda
}

// deflate removes the found eigenpair in place: c -= lambda * v * v'.
func deflate(c [][]float64, v []float64, lambda float64) {
	for i := range c {
		for j := range c[i] {
			c[i][j] -= lambda * v[i] * v[j]
		}
	}
}

// gram computes A'A for the m x n matrix a, yielding an n x n symmetric
// matrix.
func gram(a [][]float64) [][]float64 {
	n := len(a[0])
	c := make([][]float64, n)
	for i := range c {
		c[i] = make([]float64, n)
	}
	for _, row := range a {
		for i := 0; i < n; i++ {
			if row[i] == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				c[i][j] += row[i] * row[j]
			}
		}
	}
	return c
}

// explainedVariance is the ratio of total column variance in the projected
// space to total column variance of the original matrix.
func explainedVariance(a, transformed [][]float64) float64 {
	total := totalColumnVariance(a)
	if total == 0 {
		return 0
	}
	captured := totalColumnVariance(transformed)
	ratio := captured / total
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// totalColumnVariance sums the population variance of every column.
func totalColumnVariance(m [][]float64) float64 {
	rows := len(m)
	if rows == 0 {
		return 0
	}
	cols := len(m[0])
	var total float64
	for j := 0; j < cols; j++ {
		var sum, sumSq float64
		for i := 0; i < rows; i++ {
			sum += m[i][j]
			sumSq += m[i][j] * m[i][j]
		}
		mean := sum / float64(rows)
		total += sumSq/float64(rows) - mean*mean
	}
	return total
}

func matVec(m [][]float64, v []float64) []float64 {
	out := make([]float64, len(m))
	for i, row := range m {
		out[i] = dot(row, v)
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// normalize scales v to unit length in place, returning the original norm.
func normalize(v []float64) float64 {
	norm := math.Sqrt(dot(v, v))
	if norm == 0 {
		return 0
	}
	for i := range v {
		v[i] /= norm
	}
	return norm
}
