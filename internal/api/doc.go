// Package api は実行中のメトリクスと状態を公開するHTTPサーバーを提供する。
//
// # エンドポイント
//
//   - /metrics: Prometheus 形式のメトリクス
//   - /api/status: エンジンの実行状態
//   - /api/metrics: メトリクスのJSONスナップショット
//   - /api/presets: プリセットシナリオの一覧
//   - /ws: イベントバスと実行状態の WebSocket 配信
package api
