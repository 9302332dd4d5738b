package response

import "rbreg/lib/clock"

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success"`
	Status        string      `json:"status"`
	StatusMessage string      `json:"status_message"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		Status:        "OK",
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

// Failed renders a named domain outcome; code is one of the registration or
// check-in status codes, message its human explanation.
func Failed(code, message string) Response {
	return Response{
		Success:       false,
		Status:        code,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

func Error(message string) Response {
	return Response{
		Success:       false,
		Status:        "ERROR",
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}
