package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 集成测试辅助工具
// 测试对运行中的服务发真实HTTP请求,依赖:
// 1. 服务已启动(默认 http://localhost:8080)
// 2. 数据库已开启演示数据种子(database.seed_demo: true)
// 运行方式: BOOKSHOP_ITEST=1 go test ./test/integration/...

const (
	// BaseURL API基础URL
	BaseURL = "http://localhost:8080/api/v1"
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// 种子演示图书(见mysql.seedDemoBooks)
const (
	BookWuthering = "demo-wuthering-heights" // 11.11
	BookJaneEyre  = "demo-jane-eyre"         // 12.34
	BookRaven     = "demo-raven"             // 13.13
)

// SkipUnlessIntegration 未显式开启集成测试时跳过
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("BOOKSHOP_ITEST") == "" {
		t.Skip("集成测试需要运行中的服务,设置BOOKSHOP_ITEST=1开启")
	}
}

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// OrderData 订单响应数据
type OrderData struct {
	ID        string          `json:"id"`
	OrderNo   string          `json:"order_no"`
	Total     string          `json:"total"`
	Items     []OrderItemData `json:"items"`
	CreatedAt string          `json:"created_at"`
}

// OrderItemData 订单明细响应数据
type OrderItemData struct {
	ID        string  `json:"id"`
	BookID    string  `json:"book_id"`
	Quantity  int     `json:"quantity"`
	NetAmount *string `json:"net_amount"`
}

// OrderListData 订单列表响应数据
type OrderListData struct {
	List  []OrderData `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}

// PostJSON 发送POST请求并解析JSON响应
// headers为可选的额外请求头(如X-Idempotency-Key)
func PostJSON(t *testing.T, url string, data interface{}, headers map[string]string) *Response {
	t.Helper()

	jsonData, err := json.Marshal(data)
	require.NoError(t, err, "JSON序列化失败")

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	require.NoError(t, err, "创建HTTP请求失败")

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return doRequest(t, req)
}

// GetJSON 发送GET请求并解析JSON响应
func GetJSON(t *testing.T, url string) *Response {
	t.Helper()

	req, err := http.NewRequest("GET", url, nil)
	require.NoError(t, err, "创建HTTP请求失败")

	return doRequest(t, req)
}

func doRequest(t *testing.T, req *http.Request) *Response {
	t.Helper()

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	err = json.Unmarshal(body, &result)
	require.NoError(t, err, "解析JSON响应失败: %s", string(body))

	return &result
}

// CreateTestOrder 创建测试订单并返回订单数据
func CreateTestOrder(t *testing.T, items []map[string]interface{}) OrderData {
	t.Helper()

	resp := PostJSON(t, BaseURL+"/orders", map[string]interface{}{"items": items}, nil)
	require.Equal(t, 0, resp.Code, "创建订单失败: %s", resp.Message)

	var data OrderData
	require.NoError(t, json.Unmarshal(resp.Data, &data), "解析订单响应失败")
	return data
}

// GenerateIdempotencyKey 生成唯一的幂等键
func GenerateIdempotencyKey() string {
	return fmt.Sprintf("itest-%d", time.Now().UnixNano())
}
