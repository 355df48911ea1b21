package api

type quotesBatchPayload struct {
	Symbols []string `json:"symbols"`
}

type marketStatusResponse struct {
	Open   bool   `json:"open"`
	Status string `json:"status"`
}
