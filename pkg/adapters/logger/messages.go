package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Driver (info)
		"Pushing images from %s to %s (%dx%d, queue %d)":      "%s の画像を %s へ送出します (%dx%d, キュー %d)",
		"Found %d images in %s":                               "%d 枚の画像が %s にあります",
		"Worker %s started, pushing a frame every %s":         "ワーカー %s を起動しました。%s ごとにフレームを送出します",
		"Pushed frame %d from %s":                             "フレーム %d を送出しました (%s)",
		"Stopping worker (timeout %s)":                        "ワーカーを停止中 (タイムアウト %s)",
		"Pushed %d frames, compressed %d, %d segments written": "%d フレームを送出、%d フレームを圧縮、%d セグメントを書き出しました",
		"Summary saved to %s":                                 "サマリーを %s に保存しました",

		// Driver (warn/error)
		"Interrupted, shutting down...":                     "中断されました。シャットダウン中...",
		"Interrupted, stopping worker...":                   "中断されました。ワーカーを停止中...",
		"Skipping %s: %s":                                   "%s をスキップします: %s",
		"Queue full, frame from %s rejected":                "キューが満杯のため %s のフレームを破棄しました",
		"Worker was terminated after %s, %d frames dropped": "ワーカーは %s 後に強制終了され、%d フレームが破棄されました",
		"Failed to save debug frame %d: %s":                 "デバッグ用フレーム %d の保存に失敗しました: %s",
		"Failed to save debug output: %s":                   "デバッグ出力の保存に失敗しました: %s",
		"Failed to write summary: %s":                       "サマリーの書き込みに失敗しました: %s",
		"Failed to scan %s: %s":                             "%s の走査に失敗しました: %s",
		"Failed to start worker: %s":                        "ワーカーの起動に失敗しました: %s",
		"No images found in %s":                             "%s に画像が見つかりません",
		"None of the %d images could be loaded":             "%d 枚の画像をいずれも読み込めませんでした",

		// Scan stage
		"Found %d images among %d files in %s": "%[3]s の %[2]d ファイル中 %[1]d 枚が画像です",

		// Compressor worker
		"Worker %s started: queue %d, target %dx%d":            "ワーカー %s 起動: キュー %d, 出力 %dx%d",
		"Frame %d process time cost: %d ms":                    "フレーム %d の処理時間: %d ms",
		"Frame %d process error: %s":                           "フレーム %d の処理エラー: %s",
		"Frame %d process error: %v":                           "フレーム %d の処理エラー: %v",
		"Frame %d rejected: %s":                                "フレーム %d を拒否しました: %s",
		"Stopping worker %s with %d queued frames (timeout %s)": "ワーカー %s を停止中 (待機中 %d フレーム, タイムアウト %s)",
		"Stop timeout of %s exceeded, terminating worker":      "停止タイムアウト %s を超えたためワーカーを強制終了します",
		"Worker did not exit within %s, abandoning it":         "ワーカーが %s 以内に終了しないため放棄します",
		"Dropped %d frames without compression":                "%d フレームを圧縮せずに破棄しました",
		"Failed to finalize compressor: %s":                    "圧縮処理の終了に失敗しました: %s",
		"Consumer of worker %s finished":                       "ワーカー %s の処理ループが終了しました",
		"Worker %s stopped in %s":                              "ワーカー %s は %s で停止しました",
	})
}
