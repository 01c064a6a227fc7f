// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

package trainer

import (
	"math/rand"

	"github.com/2024ac05667-alt/recomart/internal/models"
)

// splitInteractions partitions interactions into train and test subsets at
// the trainPercent boundary. Membership is decided by a seeded shuffle of
// index positions, so the same input always produces the same partition. The
// input slice is not modified.
func splitInteractions(interactions []models.Interaction) (trainSet, testSet []models.Interaction) {
	n := len(interactions)
	perm := rand.New(rand.NewSource(randomSeed)).Perm(n) //nolint:gosec // deterministic split, not cryptographic

	nTrain := n * trainPercent / 100
	trainSet = make([]models.Interaction, 0, nTrain)
	testSet = make([]models.Interaction, 0, n-nTrain)
	for i, idx := range perm {
		if i < nTrain {
			trainSet = append(trainSet, interactions[idx])
		} else {
			testSet = append(testSet, interactions[idx])
		}
	}
	return trainSet, testSet
}
