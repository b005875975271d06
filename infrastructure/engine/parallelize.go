package engine

import "context"

// Parallelize applies fn to every item on the context's worker slots and
// returns the results in input order.
func Parallelize[T, R any](ctx context.Context, c *Context, name string, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	tasks := make([]Task, len(items))
	for i, item := range items {
		tasks[i] = func(ctx context.Context) error {
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		}
	}

	if err := c.RunJob(ctx, name, tasks...); err != nil {
		return nil, err
	}
	return results, nil
}
