// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

// Package dataset provides a generic in-memory partitioned collection with
// the functional contracts the pipeline expects from a host execution engine:
// Map, FlatMap, Filter, and ReduceByKey.
//
// Transformations run in parallel across partitions. Callers must supply pure
// functions over immutable inputs; that is what makes out-of-order parallel
// execution safe. ReduceByKey requires a mathematically associative and
// commutative merge: the accumulation order across partitions is not
// deterministic and is not part of the contract, only the mathematical result
// up to floating-point rounding.
package dataset
