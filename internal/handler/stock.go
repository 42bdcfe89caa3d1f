package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock-data-backend/internal/stockdata"
)

// fetchHistory 测试时可替换
var fetchHistory = stockdata.GetHistory

// GetStockData 获取指定股票过去一年的日K数据
func GetStockData(c *gin.Context) {
	ticker := c.Param("ticker")

	bars, err := fetchHistory(ticker, stockdata.RangeOneYear)
	if err != nil {
		if errors.Is(err, stockdata.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": fmt.Sprintf("No data found for ticker '%s'. It might be an invalid ticker or delisted.", ticker),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to retrieve data for %s. Detail: %v", ticker, err),
		})
		return
	}

	c.JSON(http.StatusOK, bars)
}
