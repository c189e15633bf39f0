// Package main provides localization for the pushwork CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Source":   "入力",
		"Frames":   "フレーム",
		"Driver":   "送出",
		"Worker":   "ワーカー",
		"Encoding": "エンコード",
		"Output":   "出力先",
		"Debug":    "デバッグ",
		"Logging":  "ログ",

		// Root command
		"Compress a stream of still images into H.264 segments": "静止画の連続をH.264セグメントに圧縮",
		"pushwork loads images from a directory at a fixed rate and hands them to a background worker that compresses them into H.264 segment files.": "pushworkはディレクトリの画像を一定間隔で読み込み、バックグラウンドのワーカーがH.264セグメントファイルに圧縮します。",

		// Run command
		"Push images to the compression worker": "画像を圧縮ワーカーへ送出",
		"Scan the images directory, push one image per interval to the worker and stop the worker when the duration elapses or the process is interrupted.": "画像ディレクトリを走査し、一定間隔で1枚ずつワーカーへ送出します。実行時間の経過または中断でワーカーを停止します。",

		// Source flags
		"YAML configuration file":          "YAML設定ファイル",
		"Directory of input images":        "入力画像のディレクトリ",
		"Image file extensions to pick up": "対象とする画像ファイルの拡張子",

		// Frame flags
		"Frame width in pixels (even)":                                       "フレームの幅（ピクセル、偶数）",
		"Frame height in pixels (even)":                                      "フレームの高さ（ピクセル、偶数）",
		"How images of another size are handled (strict, stretch, letterbox)": "サイズの異なる画像の扱い（strict, stretch, letterbox）",
		"Letterbox background color (hex, e.g., #000000)":                    "レターボックスの背景色（16進数、例: #000000）",

		// Driver flags
		"Time between pushed frames":                       "フレームの送出間隔",
		"Run length (0 = until interrupted or max frames)": "実行時間（0 = 中断または最大フレーム数まで）",
		"Stop after this many frames (0 = unlimited)":      "このフレーム数で停止（0 = 無制限）",

		// Worker flags
		"Worker queue capacity":                           "ワーカーのキュー容量",
		"Behaviour on a full queue (block, reject)":       "キューが満杯のときの動作（block, reject）",
		"Time the worker gets to drain its queue on stop": "停止時にキューを処理しきるまでの猶予",
		"Time a cancelled worker gets to exit":            "強制終了後にワーカーの終了を待つ時間",

		// Encoding flags
		"Nominal frame rate of the segments":                           "セグメントの公称フレームレート",
		"Keyframe interval in frames":                                  "キーフレーム間隔（フレーム数）",
		"Frames per segment file":                                      "セグメントファイルあたりのフレーム数",
		"x264 preset":                                                  "x264プリセット",
		"H.264 profile":                                                "H.264プロファイル",
		"Video CRF value (0-63, lower is better, 0 = encoder default)": "動画のCRF値（0-63、低いほど高品質、0 = エンコーダー既定値）",
		"Target bitrate in kbps (0 = unset)":                           "目標ビットレート（kbps、0 = 指定なし）",
		"Path to ffmpeg executable":                                    "ffmpeg実行ファイルのパス",

		// Output flags
		"Directory for segment files":   "セグメントファイルの出力先ディレクトリ",
		"Segment container (h264, mp4)": "セグメントのコンテナ（h264, mp4）",
		"Output execution summary to file (Markdown, or JSON with a .json extension)": "実行サマリーをファイルに出力（Markdown形式、拡張子.jsonならJSON形式）",

		// Debug flags
		"Save every pushed frame and the run result": "送出した全フレームと実行結果を保存",
		"Directory for debug output":                 "デバッグ出力のディレクトリ",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Inspect command
		"Show codec and frame count of segment files":                             "セグメントファイルのコーデックとフレーム数を表示",
		"At least one segment file is required":                                   "セグメントファイルを1つ以上指定してください",
		"%s: %s in %s, %dx%d, %d frames (%d keyframes), profile %s, %d bytes":     "%s: %s (%s), %dx%d, %d フレーム (キーフレーム %d), プロファイル %s, %d バイト",
		"%d of %d files could not be inspected":                                   "%[2]d ファイル中 %[1]d ファイルを解析できませんでした",

		// Version command
		"Show version information": "バージョン情報を表示",
		"pushwork version %s":      "pushwork バージョン %s",

		// Errors
		"Error: %s": "エラー: %s",

		// Summary content
		"Run Summary":              "実行サマリー",
		"Run":                      "実行",
		"Shutdown":                 "停止",
		"Settings":                 "設定",
		"Segments":                 "セグメント",
		"Item":                     "項目",
		"Value":                    "値",
		"Worker ID":                "ワーカーID",
		"Images Directory":         "画像ディレクトリ",
		"Images Found":             "画像数",
		"Elapsed":                  "経過時間",
		"Status":                   "状態",
		"Completed":                "完了",
		"Interrupted":              "中断",
		"Failed":                   "失敗",
		"Pushed":                   "送出",
		"Compressed":               "圧縮",
		"Dropped":                  "破棄",
		"Rejected":                 "拒否",
		"Load Failures":            "読み込み失敗",
		"Average Cost":             "平均処理時間",
		"Stop Timeout":             "停止タイムアウト",
		"Stop Time":                "停止所要時間",
		"Outcome":                  "結果",
		"Drained":                  "処理完了",
		"Forced":                   "強制終了",
		"Abandoned":                "放棄",
		"Frame Size":               "フレームサイズ",
		"Fit":                      "サイズ調整",
		"Queue Size":               "キュー容量",
		"Enqueue Policy":           "投入ポリシー",
		"Interval":                 "送出間隔",
		"Encoder":                  "エンコーダー",
		"Segment":                  "セグメント構成",
		"File":                     "ファイル",
		"Codec":                    "コーデック",
		"Size":                     "サイズ",
		"Total":                    "合計",
		"No segments were written.": "セグメントは書き出されませんでした。",
		"Generated at":             "生成日時",
	})
}
