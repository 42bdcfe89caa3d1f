package stockdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"stock-data-backend/internal/model"
)

// 支持的取数区间
const (
	RangeOneYear  = "1y"
	RangeOneMonth = "1mo"
)

// ErrNoData 股票无数据（代码无效或已退市）
var ErrNoData = errors.New("no price data")

// HTTPClient HTTP客户端
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// chartBaseURL 测试时可替换
var chartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// financeGoHistory 备用数据源，测试时可替换
var financeGoHistory = getHistoryFromFinanceGo

// GetHistory 获取指定区间的日K数据
func GetHistory(symbol, rng string) ([]model.Bar, error) {
	// 先尝试行情图表接口
	bars, err := getHistoryFromChartAPI(symbol, rng)
	if err == nil {
		if len(bars) == 0 {
			return nil, ErrNoData
		}
		return bars, nil
	}
	if errors.Is(err, ErrNoData) {
		// 无数据不走备用源：备用源查的是同一份行情
		return nil, err
	}

	// 图表接口失败，尝试 finance-go
	bars, ferr := financeGoHistory(symbol, rng)
	if ferr != nil {
		return nil, fmt.Errorf("chart api: %v; finance-go: %v", err, ferr)
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return bars, nil
}

// getHistoryFromChartAPI 从行情图表接口获取日K
func getHistoryFromChartAPI(symbol, rng string) ([]model.Bar, error) {
	u := fmt.Sprintf("%s/%s?interval=1d&range=%s", chartBaseURL, url.PathEscape(symbol), rng)

	req, _ := http.NewRequest("GET", u, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// 无效代码返回 404
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart api status %d: %s", resp.StatusCode, string(body))
	}

	var chartResp struct {
		Chart struct {
			Result []struct {
				Meta struct {
					GMTOffset int64 `json:"gmtoffset"`
				} `json:"meta"`
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Open   []*float64 `json:"open"`
						High   []*float64 `json:"high"`
						Low    []*float64 `json:"low"`
						Close  []*float64 `json:"close"`
						Volume []*int64   `json:"volume"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
			Error *struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}

	if err := json.Unmarshal(body, &chartResp); err != nil {
		return nil, fmt.Errorf("chart api decode: %v", err)
	}
	if chartResp.Chart.Error != nil {
		return nil, fmt.Errorf("chart api error: %s", chartResp.Chart.Error.Description)
	}
	if len(chartResp.Chart.Result) == 0 {
		return nil, ErrNoData
	}

	result := chartResp.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, ErrNoData
	}
	quote := result.Indicators.Quote[0]

	bars := make([]model.Bar, 0, len(result.Timestamp))
	seen := make(map[string]bool, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		// 停牌、节假日等空档
		if quote.Open[i] == nil && quote.High[i] == nil && quote.Low[i] == nil && quote.Close[i] == nil {
			continue
		}

		// 按交易所本地时区换算成日历日期
		date := time.Unix(ts+result.Meta.GMTOffset, 0).UTC().Format("2006-01-02")
		if seen[date] {
			continue
		}
		seen[date] = true

		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		bars = append(bars, model.Bar{
			Date:   date,
			Open:   deref(quote.Open[i]),
			High:   deref(quote.High[i]),
			Low:    deref(quote.Low[i]),
			Close:  deref(quote.Close[i]),
			Volume: volume,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

// getHistoryFromFinanceGo 从 finance-go 获取日K
func getHistoryFromFinanceGo(symbol, rng string) ([]model.Bar, error) {
	end := time.Now()
	start := end.AddDate(-1, 0, 0)
	if rng == RangeOneMonth {
		start = end.AddDate(0, -1, 0)
	}

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var bars []model.Bar
	seen := make(map[string]bool)
	for iter.Next() {
		b := iter.Bar()
		date := time.Unix(int64(b.Timestamp), 0).UTC().Format("2006-01-02")
		if seen[date] {
			continue
		}
		seen[date] = true
		bars = append(bars, model.Bar{
			Date:   date,
			Open:   b.Open.InexactFloat64(),
			High:   b.High.InexactFloat64(),
			Low:    b.Low.InexactFloat64(),
			Close:  b.Close.InexactFloat64(),
			Volume: int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
