package marketplace

// Wire DTOs for the auction marketplace REST API. Prices travel as
// decimal strings; quantities as integers.

// auctionErrorID values the client gives special treatment
const (
	// auctionErrorOfferExists is returned when an offer already exists
	// for the SKU
	auctionErrorOfferExists = 25002
)

type auctionError struct {
	ErrorID int    `json:"errorId"`
	Message string `json:"message"`
}

type auctionErrorResponse struct {
	Errors []auctionError `json:"errors"`
}

type auctionAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type auctionAddress struct {
	AddressLine1    string `json:"addressLine1,omitempty"`
	City            string `json:"city,omitempty"`
	StateOrProvince string `json:"stateOrProvince,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
	Country         string `json:"country"`
}

type auctionLocation struct {
	MerchantLocationKey    string          `json:"merchantLocationKey"`
	Name                   string          `json:"name,omitempty"`
	MerchantLocationStatus string          `json:"merchantLocationStatus"`
	Address                *auctionAddress `json:"location,omitempty"`
}

type auctionLocationsResponse struct {
	Locations []auctionLocation `json:"locations"`
	Total     int               `json:"total"`
}

type auctionCreateLocationRequest struct {
	Name          string         `json:"name"`
	Location      auctionAddress `json:"location"`
	LocationTypes []string       `json:"locationTypes"`
}

type auctionInventoryProduct struct {
	Title     string            `json:"title"`
	Aspects   map[string]string `json:"aspects,omitempty"`
	ImageURLs []string          `json:"imageUrls,omitempty"`
}

type auctionInventoryAvailability struct {
	Quantity int `json:"quantity"`
}

type auctionInventoryItemRequest struct {
	Product      auctionInventoryProduct      `json:"product"`
	Condition    string                       `json:"condition"`
	Availability auctionInventoryAvailability `json:"availability"`
}

type auctionOfferPolicies struct {
	PaymentPolicyID     string `json:"paymentPolicyId"`
	ReturnPolicyID      string `json:"returnPolicyId"`
	FulfillmentPolicyID string `json:"fulfillmentPolicyId"`
}

type auctionCreateOfferRequest struct {
	Sku                 string               `json:"sku"`
	MarketplaceFormat   string               `json:"format"`
	MerchantLocationKey string               `json:"merchantLocationKey"`
	AvailableQuantity   int                  `json:"availableQuantity"`
	CategoryID          string               `json:"categoryId"`
	Price               auctionAmount        `json:"pricingSummary"`
	ListingPolicies     auctionOfferPolicies `json:"listingPolicies"`
}

type auctionCreateOfferResponse struct {
	OfferID string `json:"offerId"`
}

type auctionOffer struct {
	OfferID             string        `json:"offerId"`
	Sku                 string        `json:"sku"`
	MerchantLocationKey string        `json:"merchantLocationKey"`
	AvailableQuantity   int           `json:"availableQuantity"`
	CategoryID          string        `json:"categoryId"`
	Price               auctionAmount `json:"pricingSummary"`
	Status              string        `json:"status"`
	ListingID           string        `json:"listingId,omitempty"`
}

type auctionOffersResponse struct {
	Offers []auctionOffer `json:"offers"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

type auctionPublishResponse struct {
	ListingID string `json:"listingId"`
}
