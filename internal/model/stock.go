package model

// Bar 单个交易日的K线数据（OHLCV）
type Bar struct {
	Date   string  `json:"date"` // YYYY-MM-DD，不含时区和时间
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}
