package models

// Response - единый конверт ответа API: {success, data?, error?}.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK оборачивает успешный результат.
func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Fail оборачивает сообщение об ошибке.
func Fail(message string) Response {
	return Response{Success: false, Error: message}
}
