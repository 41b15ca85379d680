// Package poll は識別子集合に対する並列度制限付きの実行を提供する。
package poll

import (
	"context"
	"sync"
)

// RunAll はitemsの各要素に対してworkerを並列実行し、結果を入力順で返す。
//
// 同時実行数はlimitに制限され、1つ完了するごとに次の待機中の要素が
// 即座にディスパッチされる（バッチラウンドではなくスライディングウィンドウ）。
// 結果スロットは位置ベース: results[i]は必ずitems[i]の結果であり、
// 完了順には依存しない。
//
// limitは max(1, min(limit, len(items))) に丸められる。
// workerが全域関数（Resolver等）である限り、RunAll自体に失敗経路はない。
func RunAll[T any](ctx context.Context, items []string, limit int, worker func(ctx context.Context, item string) T) []T {
	results := make([]T, len(items))
	if len(items) == 0 {
		return results
	}

	limit = clampLimit(limit, len(items))

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(i int, item string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			results[i] = worker(ctx, item)
		}(i, item)
	}

	wg.Wait()
	return results
}

// clampLimit は並列度を1以上・要素数以下に丸める。
func clampLimit(limit, count int) int {
	if limit < 1 {
		limit = 1
	}
	if limit > count {
		limit = count
	}
	return limit
}
