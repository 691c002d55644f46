package dto

// TwelveDataTimeSeriesResponse mirrors /time_series. Values arrive newest first
// and every number is a string.
type TwelveDataTimeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
		Type     string `json:"type"`
	} `json:"meta"`
	Values  []TwelveDataValue `json:"values"`
	Status  string            `json:"status"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
}

type TwelveDataValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

const (
	TwelveDataDatetimeLayout = "2006-01-02 15:04:05"
	TwelveDataDateLayout     = "2006-01-02"
)
