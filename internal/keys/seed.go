package keys

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Seed reads a JSON array of keys from path and saves each into store.
// publicKey is base64 encoded. It stops at the first key that fails to save.
func Seed(ctx context.Context, store Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read key seed: %w", err)
	}
	var seed []Key
	if err := json.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("parse key seed %s: %w", path, err)
	}
	for i, k := range seed {
		if err := store.Save(ctx, k); err != nil {
			return i, err
		}
	}
	return len(seed), nil
}
