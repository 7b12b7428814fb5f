// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package dataset

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Collection is an immutable partitioned slice of T. The zero value is an
// empty collection.
type Collection[T any] struct {
	parts [][]T
}

// FromSlice partitions items into at most partitions chunks of near-equal
// size. If partitions <= 0, it defaults to runtime.NumCPU(). The input slice
// is not copied; callers must not mutate it afterwards.
func FromSlice[T any](items []T, partitions int) *Collection[T] {
	if partitions <= 0 {
		partitions = runtime.NumCPU()
	}
	if partitions > len(items) {
		partitions = len(items)
	}
	if partitions == 0 {
		return &Collection[T]{}
	}

	parts := make([][]T, 0, partitions)
	chunk := (len(items) + partitions - 1) / partitions
	for start := 0; start < len(items); start += chunk {
		end := start + chunk
		if end > len(items) {
			end = len(items)
		}
		parts = append(parts, items[start:end])
	}
	return &Collection[T]{parts: parts}
}

// Partitions returns the number of partitions.
func (c *Collection[T]) Partitions() int {
	return len(c.parts)
}

// Len returns the total number of elements.
func (c *Collection[T]) Len() int {
	n := 0
	for _, p := range c.parts {
		n += len(p)
	}
	return n
}

// Collect gathers all elements into a single slice in partition order.
func (c *Collection[T]) Collect() []T {
	out := make([]T, 0, c.Len())
	for _, p := range c.parts {
		out = append(out, p...)
	}
	return out
}

// Map applies f to every element, preserving partitioning. Partitions run in
// parallel; the first error cancels the remaining work.
func Map[T, U any](ctx context.Context, c *Collection[T], f func(T) (U, error)) (*Collection[U], error) {
	out := make([][]U, len(c.parts))
	g, ctx := errgroup.WithContext(ctx)

	for pi, part := range c.parts {
		g.Go(func() error {
			res := make([]U, len(part))
			for i, item := range part {
				if err := ctx.Err(); err != nil {
					return err
				}
				u, err := f(item)
				if err != nil {
					return err
				}
				res[i] = u
			}
			out[pi] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Collection[U]{parts: out}, nil
}

// FlatMap applies f to every element and flattens the results within each
// partition. Returning an empty slice drops the element.
func FlatMap[T, U any](ctx context.Context, c *Collection[T], f func(T) ([]U, error)) (*Collection[U], error) {
	out := make([][]U, len(c.parts))
	g, ctx := errgroup.WithContext(ctx)

	for pi, part := range c.parts {
		g.Go(func() error {
			var res []U
			for _, item := range part {
				if err := ctx.Err(); err != nil {
					return err
				}
				us, err := f(item)
				if err != nil {
					return err
				}
				res = append(res, us...)
			}
			out[pi] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Collection[U]{parts: out}, nil
}

// Filter keeps elements for which keep returns true.
func Filter[T any](ctx context.Context, c *Collection[T], keep func(T) bool) (*Collection[T], error) {
	return FlatMap(ctx, c, func(item T) ([]T, error) {
		if keep(item) {
			return []T{item}, nil
		}
		return nil, nil
	})
}

// MapPartitions applies f once per partition with the partition index. This is
// the hook for per-partition state such as a deterministic per-partition RNG.
func MapPartitions[T, U any](ctx context.Context, c *Collection[T], f func(partition int, items []T) ([]U, error)) (*Collection[U], error) {
	out := make([][]U, len(c.parts))
	g, ctx := errgroup.WithContext(ctx)

	for pi, part := range c.parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := f(pi, part)
			if err != nil {
				return err
			}
			out[pi] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Collection[U]{parts: out}, nil
}

// ReduceByKey groups elements by key and folds them into per-key accumulators.
// Each partition builds a partial map which is then merged at the partition
// boundary, so acc and merge must together form an associative, commutative
// reduction. seed creates a fresh accumulator for a key.
func ReduceByKey[T any, K comparable, A any](
	ctx context.Context,
	c *Collection[T],
	key func(T) K,
	seed func() A,
	acc func(A, T) A,
	merge func(A, A) A,
) (map[K]A, error) {
	partials := make([]map[K]A, len(c.parts))
	g, ctx := errgroup.WithContext(ctx)

	for pi, part := range c.parts {
		g.Go(func() error {
			local := make(map[K]A)
			for _, item := range part {
				if err := ctx.Err(); err != nil {
					return err
				}
				k := key(item)
				a, ok := local[k]
				if !ok {
					a = seed()
				}
				local[k] = acc(a, item)
			}
			partials[pi] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge partials; the shuffle/exchange step of a real engine.
	result := make(map[K]A)
	for _, local := range partials {
		for k, a := range local {
			if existing, ok := result[k]; ok {
				result[k] = merge(existing, a)
			} else {
				result[k] = a
			}
		}
	}
	return result, nil
}
