package dto

// Response 统一返回结构，业务码放在 body 中
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}
