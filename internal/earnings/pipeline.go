package earnings

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/vault-earnings-ea/internal/model"
)

// ComputeAll runs the assembly for every vault of a cycle. Vault
// computations are pure and independent, so they fan out in parallel and
// fan in to a map keyed by vault address. A cancelled context stops
// scheduling; already-started vaults finish.
func ComputeAll(ctx context.Context, input model.CycleInput) map[string]model.VaultEarnings {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]model.VaultEarnings, len(input.Snapshots))
	)

	for i := range input.Snapshots {
		select {
		case <-ctx.Done():
			logrus.Warn("Earnings computation cancelled mid-cycle")
			wg.Wait()
			return results
		default:
		}

		wg.Add(1)
		go func(v model.VaultSnapshot) {
			defer wg.Done()

			// Event maps and result keys share one canonical address form.
			addr := strings.ToLower(v.Address)
			record := Assemble(v, input.Events[addr], input.Quotes, input.FeeAPR, input.FetchedAt)

			mu.Lock()
			results[addr] = record
			mu.Unlock()
		}(input.Snapshots[i])
	}

	wg.Wait()

	logrus.WithField("vaults", len(results)).Debug("Cycle computation finished")
	return results
}
