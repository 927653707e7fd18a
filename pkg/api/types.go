package api

import "time"

type BroadcastRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type BroadcastResponse struct {
	Msg string `json:"msg"`
	ID  string `json:"id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
