// Package aggregate は解決結果の整列・重複排除とアーティファクト出力を提供する。
package aggregate

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/reenz/liveboard/internal/model"
)

// SortStatuses はステータスレコードを正準順で整列する。
// 並び順: ライブ中が先、次に視聴者数の降順、最後にスラッグの昇順。
// スラッグ昇順のタイブレークにより、同じ入力に対して常に
// ビット単位で同一の出力が得られる（冪等・決定的）。
func SortStatuses(records []model.ChannelStatus) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Live != b.Live {
			return a.Live
		}
		if a.Viewers != b.Viewers {
			return a.Viewers > b.Viewers
		}
		return a.Slug < b.Slug
	})
}

// DedupeVideos は動画IDで重複排除した新しいスライスを返す。
// 処理順で先に現れたエントリを残す。
func DedupeVideos(entries []model.VideoEntry) []model.VideoEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]model.VideoEntry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// SortVideos は動画エントリを公開日時の降順で整列する。
// 同時刻のタイブレークはIDの昇順で、出力を決定的にする。
func SortVideos(entries []model.VideoEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Published.Equal(b.Published) {
			return a.Published.After(b.Published)
		}
		return a.ID < b.ID
	})
}

// WriteArtifact は値を整形済みJSONとしてファイルに書き出す。
// 2スペースインデント、末尾改行、UTF-8。既存ファイルは全体を置き換える。
func WriteArtifact(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("アーティファクトのシリアライズに失敗しました: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("アーティファクトの書き込みに失敗しました: %w", err)
	}
	return nil
}

// WriteEmpty は空配列のアーティファクトを書き出す。
// 実行全体が設定不備等で失敗した場合もファイル自体は必ず存在させ、
// 下流の静的ページがファイル欠落を見ないようにする。
func WriteEmpty(path string) error {
	if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
		return fmt.Errorf("空アーティファクトの書き込みに失敗しました: %w", err)
	}
	return nil
}
