// Package main provides localization for the keythumb CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input":         "入力",
		"Output":        "出力",
		"Encoding":      "エンコード",
		"Contact Sheet": "コンタクトシート",
		"Backend":       "バックエンド",
		"Logging":       "ログ",

		// Commands
		"Extract spaced keyframe thumbnails from video files":      "動画ファイルから一定間隔のキーフレームサムネイルを抽出",
		"Write one thumbnail per keyframe, spaced by the interval": "間隔を空けたキーフレームごとにサムネイルを1枚書き出す",
		"List the streams of a container and the available codecs": "コンテナのストリームと利用可能なコーデックを一覧表示",
		"Show version information":                                 "バージョン情報を表示",

		// Input flags
		"YAML configuration file providing defaults":       "デフォルト値を与えるYAML設定ファイル",
		"Input video file":                                 "入力動画ファイル",
		"Minimum seconds between thumbnails (default: 10)": "サムネイル間の最小秒数（デフォルト: 10）",

		// Output flags
		"Output path template with one integer verb (default: thumb-%04d.png)": "整数の書式指定を1つ含む出力パステンプレート（デフォルト: thumb-%04d.png）",
		"Write a run summary (.json for JSON, Markdown otherwise)":             "実行サマリーを書き出す（.jsonならJSON、それ以外はMarkdown）",
		"Decode and encode without writing files":                              "ファイルを書き出さずにデコードとエンコードだけを行う",
		"Skip frames that fail to encode instead of stopping":                  "エンコードに失敗したフレームを停止せずにスキップ",

		// Encoding flags
		"Image format (png, jpeg, webp; default: from the output extension)": "画像形式（png, jpeg, webp、デフォルト: 出力の拡張子から判定）",
		"Thumbnail width keeping the aspect ratio (0 = source size)":         "縦横比を保ったサムネイルの幅（0 = 元のサイズ）",
		"JPEG/WebP quality (1-100)":                                          "JPEG/WebPの品質（1-100）",
		"Use lossy WebP encoding":                                            "非可逆のWebPエンコードを使用",
		"Scaling kernel (nearest, bilinear, catmullrom)":                     "拡大縮小カーネル（nearest, bilinear, catmullrom）",
		"Fail instead of falling back to the native encoders":                "ネイティブエンコーダーにフォールバックせずに失敗する",

		// Backend flags
		"Codec backend (auto, native, libav)":                                                  "コーデックのバックエンド（auto, native, libav）",
		"Path to the ffmpeg binary used for H.264/HEVC (falls back to FFMPEG_PATH, then PATH)": "H.264/HEVCに使うffmpegのパス（次にFFMPEG_PATH、PATHの順で検索）",

		// Contact sheet flags
		"Also write a contact sheet PNG to this path":       "このパスにコンタクトシートPNGも書き出す",
		"Contact sheet columns (default: 4)":                "コンタクトシートのカラム数（デフォルト: 4）",
		"Contact sheet tile width in pixels (default: 320)": "コンタクトシートのタイル幅（ピクセル、デフォルト: 320）",
		"Omit timestamp labels on the contact sheet":        "コンタクトシートのタイムスタンプを省略",
		"TrueType font for contact sheet labels":            "コンタクトシートのラベル用TrueTypeフォント",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Runtime messages
		"Error: %v":                       "エラー: %v",
		"Failed to load config: %v":       "設定の読み込みに失敗しました: %v",
		"Input file argument is required": "入力ファイルの引数が必要です",

		// Probe output
		"Backend: %s": "バックエンド: %s",
		"Streams:":    "ストリーム:",
		"Decoders:":   "デコーダー:",
		"Encoders:":   "エンコーダー:",
		"no decoder":  "デコーダーなし",
		"unavailable": "利用不可",

		// Version output
		"keythumb version %s": "keythumb バージョン %s",
		"libav backend: %s":   "libav バックエンド: %s",
		"compiled in":         "組み込み済み",
		"not compiled in":     "未組み込み",

		// Summary content
		"Keyframe Thumbnails": "キーフレームサムネイル",
		"Run":                 "実行ID",
		"Generated":           "生成日時",
		"Settings":            "設定",
		"Result":              "実行結果",
		"Item":                "項目",
		"Value":               "値",
		"File":                "ファイル",
		"Stream":              "ストリーム",
		"Codec":               "コーデック",
		"Decoder":             "デコーダー",
		"Size":                "サイズ",
		"Time base":           "タイムベース",
		"Interval":            "間隔",
		"Format":              "形式",
		"Width":               "幅",
		"Thumbnails":          "サムネイル",
		"Skipped":             "スキップ",
		"Total size":          "合計サイズ",
		"Packets read":        "読み込んだパケット",
		"Packets discarded":   "破棄したパケット",
		"Packets decoded":     "デコードしたパケット",
		"Contact sheet":       "コンタクトシート",
		"Time":                "時刻",
		"Path":                "パス",
	})
}
