// Package workload はストアに対するコマンド列の実行機能を提供する。
//
// シナリオは順に実行するフェーズの並びで、各フェーズは LPUSH / LRANGE /
// SET / MGET / DEL のいずれかを繰り返す。最初に失敗したコマンドで実行を
// 中断し、再試行はしない。
//
// # 機能
//
// - フェーズ定義と逐次実行
// - 定義済みプリセットシナリオ
// - コマンド結果の出力（[1, 2] や ['a', None] の表記）
// - 書き込んだ内容と応答の照合（任意）
// - 実行結果のレポート生成
//
// # プリセットシナリオ
//
// - basic: リスト書き込み、全件読み出し、SET と MGET の繰り返し
// - extended: basic に範囲読み出しと DEL の繰り返しを加えたもの
// - quick: extended と同じ形の小規模版
//
// # 使用例
//
//	config, _ := workload.GetPreset("basic")
//	engine := workload.New(config, st)
//	result, err := engine.Run(ctx)
//	fmt.Println(result.Report())
//	if err != nil {
//	    os.Exit(1)
//	}
package workload
