package marketplace

// Wire DTOs for the source exchange REST API

type exchangeListing struct {
	ID        string `json:"id"`
	StyleCode string `json:"styleCode"`
	Size      string `json:"size"`
	Amount    string `json:"amount"`
	Currency  string `json:"currencyCode"`
	State     string `json:"state"`
}

type exchangePagination struct {
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

type exchangeListingsResponse struct {
	Listings   []exchangeListing  `json:"listings"`
	Pagination exchangePagination `json:"pagination"`
}

type exchangeErrorResponse struct {
	Message string `json:"message"`
}
