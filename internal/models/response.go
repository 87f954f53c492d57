package models

// Response is the envelope every API response is normalized into.
type Response struct {
	Success  bool        `json:"success"`
	Response interface{} `json:"response"`
	Error    *ErrorBody  `json:"error"`
}

type ErrorBody struct {
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

// SuccessResponse wraps data; nil data becomes an empty object.
func SuccessResponse(data interface{}) Response {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Response{
		Success:  true,
		Response: data,
	}
}

func ErrorResponse(message string, details interface{}) Response {
	return Response{
		Success: false,
		Error: &ErrorBody{
			Message: message,
			Details: details,
		},
	}
}

// Detail is the body handlers return for plain messages; the envelope
// middleware lifts "detail" into error.message.
type Detail struct {
	Detail string `json:"detail"`
}

type Message struct {
	Message string `json:"message"`
}
