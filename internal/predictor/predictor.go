package predictor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stock-data-backend/internal/model"
	"stock-data-backend/internal/stockdata"
)

// fetchHistory 测试时可替换
var fetchHistory = stockdata.GetHistory

// Predict 对过去一个月的日收盘价做线性回归，预测下一个交易日的价格
func Predict(ticker string) (float64, error) {
	bars, err := fetchHistory(ticker, stockdata.RangeOneMonth)
	if err != nil {
		return 0, err
	}
	return PredictNext(Closes(bars))
}

// Closes 提取收盘价序列（按日期升序）
func Closes(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// PredictNext 以下标 0..n-1 为自变量做最小二乘拟合，返回下标 n 处的预测值（保留两位小数）
func PredictNext(closes []float64) (float64, error) {
	n := len(closes)
	if n < 2 {
		return 0, fmt.Errorf("need at least 2 observations to fit, got %d", n)
	}

	slope, intercept := fitLine(closes)
	next := slope*float64(n) + intercept
	return decimal.NewFromFloat(next).Round(2).InexactFloat64(), nil
}

// fitLine 一元最小二乘：x 为下标，y 为观测值
func fitLine(y []float64) (slope, intercept float64) {
	n := float64(len(y))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	slope = (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
