package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"
)

// 端到端冒烟测试：需要先运行 seed，并启动 web 与 admin 服务
func main() {
	baseURL := flag.String("web", "http://localhost:8080", "前台服务地址")
	adminURL := flag.String("admin", "http://localhost:8081", "后台服务地址")
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("    结算流程冒烟测试")
	fmt.Println("==========================================")

	// 1. 登录获取token
	fmt.Println("\n1. 登录获取token...")
	loginResp, err := httpDo(http.MethodPost, *baseURL+"/api/login", map[string]string{
		"email":    "demo@example.com",
		"password": "demo-password",
	}, "")
	if err != nil {
		fmt.Printf("   登录失败: %v\n", err)
		return
	}
	tokenData, ok := loginResp["data"].(map[string]interface{})
	if !ok {
		fmt.Printf("   登录响应格式错误: %v\n", loginResp)
		return
	}
	token, _ := tokenData["token"].(string)

	// 2. 读取已保存地址，结算时原样提交
	fmt.Println("\n2. 读取收货地址...")
	addrResp, err := httpDo(http.MethodGet, *baseURL+"/api/users/addresses", nil, token)
	if err != nil {
		fmt.Printf("   失败: %v\n", err)
		return
	}
	addrs, _ := addrResp["data"].([]interface{})
	if len(addrs) == 0 {
		fmt.Println("   没有已保存的地址，请先运行 seed")
		return
	}
	if _, err := httpDo(http.MethodPost, *baseURL+"/api/users/addresses/verify", map[string]interface{}{"address": addrs[0]}, token); err != nil {
		fmt.Printf("   地址预检失败: %v\n", err)
		return
	}

	// 3. 加入购物车
	fmt.Println("\n3. 加入购物车 product_id=1 x2...")
	if _, err := httpDo(http.MethodPost, *baseURL+"/api/cart/add", map[string]int64{"product_id": 1, "quantity": 2}, token); err != nil {
		fmt.Printf("   失败: %v\n", err)
		return
	}

	// 4. 结算
	fmt.Println("\n4. 结算...")
	checkoutResp, err := httpDo(http.MethodPost, *baseURL+"/api/cart/checkout", map[string]interface{}{"address": addrs[0]}, token)
	if err != nil {
		fmt.Printf("   失败: %v\n", err)
	} else {
		fmt.Printf("   成功: %v\n", checkoutResp["data"])
	}

	// 5. 订单列表
	fmt.Println("\n5. 查询订单...")
	ordersResp, err := httpDo(http.MethodGet, *baseURL+"/api/orders", nil, token)
	if err != nil {
		fmt.Printf("   失败: %v\n", err)
	} else {
		list, _ := ordersResp["data"].([]interface{})
		fmt.Printf("   共 %d 个订单\n", len(list))
	}
	reviewsResp, err := httpDo(http.MethodGet, *baseURL+"/api/products/1/reviews", nil, token)
	if err != nil {
		fmt.Printf("   评论查询失败: %v\n", err)
	} else {
		list, _ := reviewsResp["data"].([]interface{})
		fmt.Printf("   商品 1 共 %d 条评论\n", len(list))
	}

	// 6. 监控统计 (admin)
	fmt.Println("\n6. 监控统计 (admin)...")
	statsResp, err := httpDo(http.MethodGet, *adminURL+"/api/stats", nil, "")
	if err != nil {
		fmt.Printf("   失败: %v\n", err)
	} else {
		fmt.Printf("   成功: %v\n", statsResp["data"])
	}

	// 7. 限流：空购物车结算会被拒绝，但超出令牌桶时返回 429
	fmt.Println("\n7. 测试限流功能，发送30个快速请求...")
	rateLimitCount := 0
	for i := 0; i < 30; i++ {
		_, err := httpDo(http.MethodPost, *baseURL+"/api/cart/checkout", map[string]interface{}{"address": addrs[0]}, token)
		if he, ok := err.(*httpError); ok && he.status == http.StatusTooManyRequests {
			rateLimitCount++
		}
	}
	fmt.Printf("   限流: %d\n", rateLimitCount)

	fmt.Println("\n==========================================")
	fmt.Println("测试完成！")
	fmt.Println("==========================================")
}

type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.body)
}

func httpDo(method, url string, body interface{}, token string) (map[string]interface{}, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &httpError{status: resp.StatusCode, body: string(bodyBytes)}
	}

	var result map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("JSON解析失败: %v, 响应: %s", err, string(bodyBytes))
	}
	return result, nil
}
