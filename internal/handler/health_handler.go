package handler

import "net/http"

// HealthHandler はヘルスチェックのHTTPハンドラー。
// 依存を持たず、プロセスが応答可能であることだけを示す。
type HealthHandler struct{}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check は稼働確認に応答する。
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
