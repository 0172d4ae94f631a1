// Package parallel は観測系列のような連続した添字範囲をCPUコア数に応じて分割し、並列に処理します。
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Chunks は [0, items) を最大 workers 個の連続した範囲 [start, end) に分割します。
// 範囲の長さの差は高々1です。
func Chunks(items, workers int) [][2]int {
	if items <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > items {
		workers = items
	}

	chunks := make([][2]int, 0, workers)
	size, rest := items/workers, items%workers
	start := 0
	for w := 0; w < workers; w++ {
		end := start + size
		if w < rest {
			end++
		}
		chunks = append(chunks, [2]int{start, end})
		start = end
	}
	return chunks
}

// For は fn を [0, items) の各範囲に対して実行します。
// items が threshold 以下なら呼び出し元のgoroutineで fn(0, items) を一度だけ呼びます。
// fn は範囲の外に書き込んではいけません。
func For(items, threshold int, fn func(start, end int)) {
	_ = ForErr(context.Background(), items, threshold, func(_ context.Context, start, end int) error {
		fn(start, end)
		return nil
	})
}

// ForErr は For のエラーを返す版です。最初に失敗した範囲のエラーを返し、
// 残りの範囲にはキャンセル済みの ctx が渡されます。
func ForErr(ctx context.Context, items, threshold int, fn func(ctx context.Context, start, end int) error) error {
	if items <= 0 {
		return nil
	}
	if items <= threshold {
		return fn(ctx, 0, items)
	}

	workers := runtime.GOMAXPROCS(0)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range Chunks(items, workers) {
		start, end := c[0], c[1]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, start, end)
		})
	}
	return g.Wait()
}
