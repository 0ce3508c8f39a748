package store

import "context"

// Run executes fn inside s.Atomic and hands back the value it produced.
func Run[V any](ctx context.Context, s Store, fn func(tx Store) (V, error)) (V, error) {
	var out V
	err := s.Atomic(ctx, func(tx Store) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// IDs collects the ids of rows using the given accessor.
func IDs[T any](rows []T, id func(*T) string) []string {
	out := make([]string, 0, len(rows))
	for i := range rows {
		out = append(out, id(&rows[i]))
	}
	return out
}
