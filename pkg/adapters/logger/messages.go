package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestrator (info)
		"Extracting keyframes from %s every %d s":                    "%s からキーフレームを %d 秒間隔で抽出中",
		"Decoding %s stream %d (%dx%d) with %s, encoding %s with %s": "%s ストリーム %d (%dx%d) を %s でデコード、%s を %s でエンコード",
		"Thumbnail %d at %d ms written to %s":                        "サムネイル %d (%d ms) を %s に書き込みました",
		"Extracted %d thumbnails (%d skipped)":                       "%d 枚のサムネイルを抽出しました (%d 枚スキップ)",
		"Contact sheet saved to %s (%dx%d)":                          "コンタクトシートを %s に保存しました (%dx%d)",
		"Summary saved to %s":                                        "サマリーを %s に保存しました",
		"Skipping frame %d at %d ms: %v":                             "フレーム %d (%d ms) をスキップします: %v",
		"Extraction stopped: %v":                                     "抽出を中断しました: %v",

		// Keyframe session (debug)
		"Opened %s: stream %d (%s, %dx%d) with %s decoder, gap %d ticks": "%s を開きました: ストリーム %d (%s, %dx%d)、%s デコーダー、間隔 %d ティック",
		"Fed keyframe pts=%d (%.3fs)":                                    "キーフレームを投入 pts=%d (%.3f秒)",
		"Decoder needs more input":                                       "デコーダーは追加の入力を必要としています",
		"End of input, flushing decoder":                                 "入力終端、デコーダーをフラッシュ中",
		"Decoder drained":                                                "デコーダーを排出しました",

		// Thumbnail encoder
		"Configured %dx%d %s -> %dx%d %s":       "%dx%d %s -> %dx%d %s を構成しました",
		"Releasing previous encoder failed: %v": "以前のエンコーダーの解放に失敗しました: %v",

		// Backends
		"Using libav backend":                                              "libav バックエンドを使用",
		"Using ffmpeg at %s":                                               "%s の ffmpeg を使用",
		"H.264/HEVC decoding unavailable: %v":                              "H.264/HEVC のデコードは利用できません: %v",
		"Using %s encoder for %s (native %s)":                              "%s エンコーダーを %s に使用 (ネイティブ %s)",
		"Converter %s->%s not available in %s backend: %v":                 "%s->%s の変換は %s バックエンドで利用できません: %v",
		"%s encoder not available in %s backend, falling back to native":   "%s エンコーダーは %s バックエンドで利用できないため、ネイティブにフォールバックします",
		"libav encoder not available, falling back to native encoders: %v": "libav エンコーダーが利用できないため、ネイティブエンコーダーにフォールバックします: %v",

		// Contact sheet (debug)
		"Decoding %d thumbnails with %d workers": "%d 枚のサムネイルを %d ワーカーでデコード中",
		"Contact sheet %dx%d with %d tiles":      "コンタクトシート %dx%d、%d タイル",

		// CLI
		"Interrupted, shutting down...":                     "中断されました。シャットダウン中...",
		"Dry run: %d thumbnails, %d bytes would be written": "ドライラン: %d 枚のサムネイル、%d バイトが書き込まれる予定です",
	})
}
